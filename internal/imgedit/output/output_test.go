package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
)

func TestPrinter_Printf(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf))

	p.Printf("Hello %s", "World")
	if !strings.Contains(buf.String(), "Hello World") {
		t.Errorf("Printf output = %q, want to contain 'Hello World'", buf.String())
	}
}

func TestPrinter_Printf_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithQuiet(true))

	p.Printf("Hello %s", "World")
	if buf.Len() != 0 {
		t.Errorf("Printf with quiet should produce no output, got %q", buf.String())
	}
}

func TestPrinter_Printf_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithJSON(true))

	p.Printf("Hello %s", "World")
	if buf.Len() != 0 {
		t.Errorf("Printf with JSON mode should produce no output, got %q", buf.String())
	}
}

func TestPrinter_Success(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithNoColor(true))

	p.Success("Done!")
	if !strings.Contains(buf.String(), "Done!") {
		t.Errorf("Success output = %q, want to contain 'Done!'", buf.String())
	}
}

func TestPrinter_WarnGoesToErrOut(t *testing.T) {
	var out, errOut bytes.Buffer
	p := New(WithOutput(&out), WithErrOutput(&errOut), WithNoColor(true))

	p.Warn("%d entries skipped", 2)
	if out.Len() != 0 {
		t.Errorf("Warn wrote to stdout: %q", out.String())
	}
	if got := errOut.String(); got != "! 2 entries skipped\n" {
		t.Errorf("Warn output = %q", got)
	}
}

func TestPrinter_NoColor(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithNoColor(true))

	p.KeyValue("format", "png")
	if strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("KeyValue output contains escape codes: %q", buf.String())
	}
}

func TestPrinter_FileFailed_Quiet(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithErrOutput(&buf), WithQuiet(true), WithNoColor(true))

	p.FileFailed("cat.png", errors.New("boom"))
	if !strings.Contains(buf.String(), "cat.png: boom") {
		t.Errorf("FileFailed in quiet mode = %q, want failure line", buf.String())
	}
}

func TestPrinter_FileWritten(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithNoColor(true))

	p.FileWritten("cat.png", "cat-edited.png", 100, 200, 2048)
	out := buf.String()
	for _, want := range []string{"cat.png", "cat-edited.png", "100x200", "2.0 KiB"} {
		if !strings.Contains(out, want) {
			t.Errorf("FileWritten output = %q, want to contain %q", out, want)
		}
	}
}

func TestPrinter_FileFailed(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithErrOutput(&buf), WithNoColor(true))

	p.FileFailed("cat.png", errors.New("boom"))
	if !strings.Contains(buf.String(), "cat.png: boom") {
		t.Errorf("FileFailed output = %q", buf.String())
	}
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf))

	data := map[string]string{"key": "value"}
	if err := p.JSON(data); err != nil {
		t.Fatalf("JSON() error = %v", err)
	}

	var result map[string]string
	if err := json.Unmarshal(buf.Bytes(), &result); err != nil {
		t.Fatalf("Failed to parse JSON output: %v", err)
	}

	if result["key"] != "value" {
		t.Errorf("JSON output key = %q, want 'value'", result["key"])
	}
}

func TestPrinter_Summary(t *testing.T) {
	var buf bytes.Buffer
	p := New(WithOutput(&buf), WithNoColor(true))

	p.Summary(3, 1)
	if !strings.Contains(buf.String(), "3/4 completed (1 failed)") {
		t.Errorf("Summary output = %q", buf.String())
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
	}

	for _, tt := range tests {
		if got := FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTable(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, false, "NAME", "SIZE").AlignRight(1)
	table.Row("square", "1:1")
	table.Row("widescreen", "16:9")
	table.Row("only-name")
	if err := table.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	want := "NAME        SIZE\n" +
		"square       1:1\n" +
		"widescreen  16:9\n" +
		"only-name\n"
	if got := buf.String(); got != want {
		t.Errorf("Render() output =\n%s\nwant\n%s", got, want)
	}
}

func TestTable_Quiet(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "NAME", "ASPECT")
	table.Row("square", "1:1")
	if err := table.Render(); err != nil {
		t.Fatalf("Render() error = %v", err)
	}

	if buf.Len() != 0 {
		t.Errorf("Table with quiet should produce no output, got %q", buf.String())
	}
}

func TestProgress_Counts(t *testing.T) {
	p := NewProgress(4, "Transforming", ProgressWithQuiet(true))

	var wg sync.WaitGroup
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Done(i%2 == 0)
		}()
	}
	wg.Wait()
	p.Finish()

	done, failed := p.Counts()
	if done != 4 || failed != 2 {
		t.Errorf("Counts() = (%d, %d), want (4, 2)", done, failed)
	}
	if p.Elapsed() < 0 {
		t.Error("Elapsed() should not be negative")
	}
}

func TestProgress_RendersToWriter(t *testing.T) {
	var buf bytes.Buffer
	p := NewProgress(2, "Transforming", ProgressWithOutput(&buf))
	p.Done(true)
	p.Done(false)
	p.Finish()

	if !strings.Contains(buf.String(), "Transforming") {
		t.Errorf("progress output = %q, want label", buf.String())
	}
}
