// Command schoolhub は学校ディレクトリAPIサーバーを起動する。
//
// 使い方:
//
//	schoolhub [serve|migrate|healthcheck|help]
package main

import (
	"fmt"
	"os"

	"github.com/hitoshi/schoolhub/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
