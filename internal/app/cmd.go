package app

import (
	"fmt"
	"io"
)

// Command はサブコマンド名。
type Command string

const (
	CommandServe       Command = "serve"
	CommandMigrate     Command = "migrate"
	CommandHealthcheck Command = "healthcheck" // distrolessイメージのHEALTHCHECK用
	CommandHelp        Command = "help"
)

// commands はサブコマンドと説明の一覧。Usageの表示順でもある。
var commands = []struct {
	cmd  Command
	desc string
}{
	{CommandServe, "start the HTTP API server (default)"},
	{CommandMigrate, "apply pending database migrations and exit"},
	{CommandHealthcheck, "probe GET /health on SERVER_PORT and exit non-zero on failure"},
	{CommandHelp, "show this message"},
}

// ParseCommand は先頭の引数をサブコマンドとして解釈する。
// 空または未知の値はserveとして扱う。
func ParseCommand(args []string) Command {
	if len(args) == 0 {
		return CommandServe
	}
	switch args[0] {
	case "-h", "--help":
		return CommandHelp
	}
	for _, c := range commands {
		if string(c.cmd) == args[0] {
			return c.cmd
		}
	}
	return CommandServe
}

// Usage はサブコマンドの一覧をwに書き出す。
func Usage(w io.Writer) {
	fmt.Fprintln(w, "usage: schoolhub [command]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-12s %s\n", c.cmd, c.desc)
	}
}
