// vpetctl is a command-line tool for producing, inspecting and serving VPET
// scenes and for watching the parameter updates exchanged on a topic.
package main

func main() {
	Execute()
}
