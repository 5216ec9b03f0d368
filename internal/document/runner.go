package document

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// DefaultCommandTimeout 外部转换工具的默认超时时间
const DefaultCommandTimeout = 600 * time.Second

// CommandRunner 外部命令执行接口
type CommandRunner interface {
	// Run 执行命令并返回合并后的输出
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner 基于 os/exec 的命令执行器
type ExecRunner struct {
	Timeout time.Duration // 单条命令超时，0 表示使用默认值
}

// NewExecRunner 创建命令执行器
func NewExecRunner(timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	return &ExecRunner{Timeout: timeout}
}

// Run 执行外部命令，超时或非零退出码均返回错误
func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultCommandTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	cmd.Stderr = &out

	if err := cmd.Run(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return out.Bytes(), fmt.Errorf("%s timed out after %s", name, timeout)
		}
		return out.Bytes(), fmt.Errorf("%s failed: %w: %s", name, err, bytes.TrimSpace(out.Bytes()))
	}
	return out.Bytes(), nil
}
