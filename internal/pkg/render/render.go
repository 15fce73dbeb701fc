package render

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// JSONFlag 根命令上的持久参数，输出 JSON 而不是表格
const JSONFlag = "json"

// Output 按 --json 选择输出格式，写到命令的标准输出
func Output(cmd *cobra.Command, v interface{}, text func(w io.Writer) error) error {
	w := cmd.OutOrStdout()
	if asJSON, _ := cmd.Flags().GetBool(JSONFlag); asJSON {
		return JSON(w, v)
	}
	return text(w)
}

// JSON 以缩进 JSON 输出
func JSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// Table 对齐输出表格，headers 为空时不输出表头
func Table(w io.Writer, headers []string, rows [][]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(tw, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// Truncate 截断过长文本用于单行展示
func Truncate(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	if max <= 1 {
		return string(r[:max])
	}
	return string(r[:max-1]) + "…"
}

// Empty 无数据时的提示
func Empty(w io.Writer, what string) {
	fmt.Fprintf(w, "No %s.\n", what)
}
