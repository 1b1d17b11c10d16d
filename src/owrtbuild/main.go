package main

import "github.com/openwrt-tools/owrtbuild/src/owrtbuild/internal/cmd"

func main() {
	cmd.Execute()
}
