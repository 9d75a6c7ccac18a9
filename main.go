package main

import "ivxv.ee/collector-admin/cmd"

func main() {
	cmd.Execute()
}
