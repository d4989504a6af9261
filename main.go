package main

import "github.com/yuanmingwang/Profit-Maximizing-Simulation-of-Tim-Hortons-Using-a-Queueing-Network-Model/cmd"

func main() {
	cmd.Execute()
}
