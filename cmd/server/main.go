// cmd/server/main.go

// 記帳服務進入點：serve 啟動 HTTP API，version 輸出版本。

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version 於建置時以 -ldflags "-X main.version=..." 覆寫。
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "bankledger",
	Short: "In-memory double-entry accounting service",
	// 不帶子命令時直接啟動服務
	RunE: runServe,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
