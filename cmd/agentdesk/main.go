// Command agentdesk coordinates role-based agents through delegated tasks and
// multi-step workflows.
package main

func main() {
	Execute()
}
