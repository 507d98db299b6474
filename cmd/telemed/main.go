// Command telemed は遠隔医療の取引ダッシュボードを起動する。
//
// サブコマンド: serve（既定）, worker, migrate, provision, healthcheck
package main

import (
	"fmt"
	"os"

	"github.com/dhi/telemed/internal/app"
)

func main() {
	if err := app.Run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
