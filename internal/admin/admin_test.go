package admin

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/eventledger/internal/core"
	"github.com/JonMunkholm/eventledger/internal/storage"
)

// fileLedger opens a fresh service over the same directory on every command,
// the way separate ledgerctl invocations would.
func fileLedger(t *testing.T) (OpenFunc, string) {
	t.Helper()
	dir := t.TempDir()
	return func(ctx context.Context) (*Ledger, error) {
		store, err := storage.NewFileStore(filepath.Join(dir, "data"))
		if err != nil {
			return nil, err
		}
		svc := core.NewService(ctx, storage.NewPersister(store), core.ServiceOptions{})
		return &Ledger{Service: svc, Close: store.Close}, nil
	}, dir
}

func run(t *testing.T, open OpenFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd(open)
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func mustRun(t *testing.T, open OpenFunc, args ...string) string {
	t.Helper()
	out, err := run(t, open, args...)
	if err != nil {
		t.Fatalf("ledgerctl %s: %v", strings.Join(args, " "), err)
	}
	return out
}

func TestTypesCommands(t *testing.T) {
	open, _ := fileLedger(t)

	if got := mustRun(t, open, "types", "list"); got != "결혼\n장례\n" {
		t.Errorf("types list = %q", got)
	}
	mustRun(t, open, "types", "add", "칠순")
	mustRun(t, open, "types", "remove", "장례")
	if got := mustRun(t, open, "types", "list"); got != "결혼\n칠순\n" {
		t.Errorf("types list after changes = %q", got)
	}

	_, err := run(t, open, "types", "add", "결혼")
	if !errors.Is(err, core.ErrDuplicateType) {
		t.Errorf("duplicate add error = %v, want ErrDuplicateType", err)
	}
	_, err = run(t, open, "types", "remove", "없음")
	if !errors.Is(err, core.ErrTypeNotFound) {
		t.Errorf("remove missing error = %v, want ErrTypeNotFound", err)
	}
}

func TestImportSheetExportReset(t *testing.T) {
	open, dir := fileLedger(t)

	csvPath := filepath.Join(dir, "ledger.csv")
	csv := "날짜,구분,대상자,금액,메모\n" +
		"2024-01-01,결혼,홍길동,50000,\n" +
		"2024-01-02,장례,,10000,\n" +
		"2024-02-01,장례,김철수,,조화\n"
	if err := os.WriteFile(csvPath, []byte(csv), 0o644); err != nil {
		t.Fatal(err)
	}

	out := mustRun(t, open, "import-sheet", csvPath)
	if !strings.Contains(out, "imported 2 rows (1 skipped) from ledger.csv") {
		t.Errorf("import-sheet output = %q", out)
	}

	out = mustRun(t, open, "list", "--type", "장례")
	if !strings.Contains(out, "김철수") || strings.Contains(out, "홍길동") {
		t.Errorf("list --type output = %q", out)
	}

	backup := filepath.Join(dir, "backup.json")
	out = mustRun(t, open, "export", "-o", backup)
	if !strings.Contains(out, "exported 2 events and 2 types") {
		t.Errorf("export output = %q", out)
	}

	if _, err := run(t, open, "reset"); !errors.Is(err, ErrNotConfirmed) {
		t.Fatalf("reset without --yes error = %v, want ErrNotConfirmed", err)
	}
	out = mustRun(t, open, "reset", "--yes")
	if out != "deleted 2 events\n" {
		t.Errorf("reset output = %q", out)
	}
	if out := mustRun(t, open, "list"); strings.Count(out, "\n") != 1 {
		t.Errorf("list after reset = %q, want header only", out)
	}

	out = mustRun(t, open, "import-json", backup)
	if !strings.Contains(out, "imported 2 events and 2 types") {
		t.Errorf("import-json output = %q", out)
	}
	out = mustRun(t, open, "list")
	if !strings.Contains(out, "홍길동") || !strings.Contains(out, "50000") {
		t.Errorf("list after import-json = %q", out)
	}
}

func TestExportToStdout(t *testing.T) {
	open, _ := fileLedger(t)

	out := mustRun(t, open, "export", "-o", "-")
	if !strings.HasPrefix(out, "{\n  \"events\": []") {
		t.Errorf("export to stdout = %q", out)
	}
}

func TestImportErrors(t *testing.T) {
	open, dir := fileLedger(t)

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{"events":[]}`), 0o644)
	if _, err := run(t, open, "import-json", bad); !errors.Is(err, core.ErrInvalidSnapshot) {
		t.Errorf("import-json error = %v, want ErrInvalidSnapshot", err)
	}

	if _, err := run(t, open, "import-sheet", filepath.Join(dir, "missing.csv")); err == nil {
		t.Error("import-sheet of a missing file succeeded")
	}

	if _, err := run(t, open, "import-json"); err == nil {
		t.Error("import-json without an argument succeeded")
	}
}

func TestLedgerClosedAfterCommand(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"success", []string{"types", "list"}, false},
		{"failing command", []string{"types", "add", "결혼"}, true},
		{"failing import", []string{"import-sheet", "missing.csv"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			base, _ := fileLedger(t)
			closes := 0
			open := func(ctx context.Context) (*Ledger, error) {
				l, err := base(ctx)
				if err != nil {
					return nil, err
				}
				storeClose := l.Close
				l.Close = func() error {
					closes++
					return storeClose()
				}
				return l, nil
			}

			_, err := run(t, open, tt.args...)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ledgerctl %s error = %v, wantErr %v", strings.Join(tt.args, " "), err, tt.wantErr)
			}
			if closes != 1 {
				t.Errorf("Close called %d times, want 1", closes)
			}
		})
	}
}

func TestCloseError(t *testing.T) {
	base, _ := fileLedger(t)
	wantErr := errors.New("flush failed")
	open := func(ctx context.Context) (*Ledger, error) {
		l, err := base(ctx)
		if err != nil {
			return nil, err
		}
		l.Close = func() error { return wantErr }
		return l, nil
	}

	if _, err := run(t, open, "types", "list"); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
	if _, err := run(t, open, "types", "add", "결혼"); !errors.Is(err, core.ErrDuplicateType) {
		t.Errorf("error = %v, want ErrDuplicateType", err)
	}
}

func TestOpenError(t *testing.T) {
	wantErr := errors.New("storage unavailable")
	open := func(context.Context) (*Ledger, error) { return nil, wantErr }

	if _, err := run(t, open, "types", "list"); !errors.Is(err, wantErr) {
		t.Errorf("error = %v, want %v", err, wantErr)
	}
}

func TestReset(t *testing.T) {
	open, _ := fileLedger(t)
	ctx := context.Background()
	l, err := open(ctx)
	if err != nil {
		t.Fatal(err)
	}
	l.Service.CreateEvent(ctx, core.EventInput{Date: "2024-01-01", Type: "결혼", Person: "a"})

	if _, err := Reset(ctx, l.Service, false); !errors.Is(err, ErrNotConfirmed) {
		t.Errorf("Reset(unconfirmed) error = %v", err)
	}
	n, err := Reset(ctx, l.Service, true)
	if err != nil || n != 1 {
		t.Errorf("Reset() = %d, %v, want 1, nil", n, err)
	}
	ev, _ := l.Service.CreateEvent(ctx, core.EventInput{Date: "2024-01-02", Type: "결혼", Person: "b"})
	if ev.ID != 1 {
		t.Errorf("id after reset = %d, want 1", ev.ID)
	}
}
