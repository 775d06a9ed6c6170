package main

// Required by c-shared, never invoked.
func main() {}
