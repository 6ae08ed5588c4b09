// Package report 汇总转存结果并输出
package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/keevingness/image-mirror/internal/actions"
	"github.com/keevingness/image-mirror/internal/types"
)

// 输出名称
const (
	OutputResults      = "results"
	OutputSuccessCount = "success-count"
	OutputTotalCount   = "total-count"
)

// ErrIncomplete 存在转存失败的镜像
var ErrIncomplete = errors.New("mirror incomplete")

// SummaryWriter 作业摘要
type SummaryWriter interface {
	AppendSummary(markdown string) (bool, error)
}

// Reporter 结果汇报器
type Reporter struct {
	outputs actions.Outputs
	summary SummaryWriter
	console io.Writer
	logger  *zap.Logger
}

// New 创建结果汇报器，summary为空时表格打印到console
func New(outputs actions.Outputs, summary SummaryWriter, console io.Writer, logger *zap.Logger) *Reporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if console == nil {
		console = io.Discard
	}
	return &Reporter{
		outputs: outputs,
		summary: summary,
		console: console,
		logger:  logger,
	}
}

// Report 写入输出并给出整体结论，存在失败镜像时返回ErrIncomplete
func (r *Reporter) Report(s *types.RunSummary) error {
	results := s.Results
	if results == nil {
		results = []types.MirrorResult{}
	}
	data, err := encodeResults(results)
	if err != nil {
		return fmt.Errorf("encode results: %w", err)
	}

	for _, out := range []struct{ name, value string }{
		{OutputResults, data},
		{OutputSuccessCount, strconv.Itoa(s.SuccessCount)},
		{OutputTotalCount, strconv.Itoa(s.TotalCount)},
	} {
		if err := r.outputs.SetOutput(out.name, out.value); err != nil {
			return fmt.Errorf("set output %s: %w", out.name, err)
		}
	}

	r.writeTable(s)

	if s.AllSucceeded() {
		r.logger.Info(fmt.Sprintf("🎉 All %d image(s) mirrored successfully!", s.TotalCount))
		return nil
	}

	r.logger.Error(fmt.Sprintf("❌ %d/%d image(s) mirrored successfully", s.SuccessCount, s.TotalCount))
	return fmt.Errorf("%w: failed to sync %d out of %d image(s)", ErrIncomplete, s.FailedCount(), s.TotalCount)
}

// writeTable 优先写入作业摘要，否则打印到控制台
func (r *Reporter) writeTable(s *types.RunSummary) {
	if r.summary != nil {
		written, err := r.summary.AppendSummary(Markdown(s))
		if err != nil {
			r.logger.Warn("Could not write job summary", zap.Error(err))
		}
		if written {
			return
		}
	}

	table := tablewriter.NewWriter(r.console)
	table.SetHeader([]string{"SOURCE", "TARGET", "STATUS", "DIGEST", "SIZE"})
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	table.AppendBulk(rows(s.Results, false))
	table.Render()
}

// encodeResults 编码结果列表，错误信息里的 < > & 原样保留
func encodeResults(results []types.MirrorResult) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(results); err != nil {
		return "", err
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Markdown 以Markdown表格渲染结果
func Markdown(s *types.RunSummary) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "### Image mirror: %d/%d succeeded\n\n", s.SuccessCount, s.TotalCount)

	table := tablewriter.NewWriter(&buf)
	table.SetHeader([]string{"Source", "Target", "Status", "Digest", "Size", "Error"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorders(tablewriter.Border{Left: true, Top: false, Right: true, Bottom: false})
	table.SetCenterSeparator("|")
	table.AppendBulk(rows(s.Results, true))
	table.Render()

	buf.WriteString("\n")
	return buf.String()
}

func rows(results []types.MirrorResult, withError bool) [][]string {
	data := make([][]string, 0, len(results))
	for _, res := range results {
		status := "✅ " + res.Status
		if !res.Succeeded() {
			status = "❌ " + res.Status
		}
		row := []string{res.Source, res.Target, status, res.Digest, res.Size}
		if withError {
			row = append(row, res.Error)
			for i := range row {
				row[i] = strings.ReplaceAll(row[i], "|", `\|`)
			}
		}
		data = append(data, row)
	}
	return data
}
