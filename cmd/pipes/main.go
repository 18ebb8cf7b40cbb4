// Pipes CLI - converts traversal bytecode to and from pipe diagrams
package main

func main() {
	Execute()
}
