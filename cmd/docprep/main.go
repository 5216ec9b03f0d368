// docprep 将文档预处理为带定位信息的分块记录
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "docprep",
	Short: "Document preprocessor",
	Long: `Normalizes PDF, office, HWP, image and text documents into page-aware chunks
with bounding boxes and page images, ready to be written to a vector store.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "config.yaml", "path to config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
