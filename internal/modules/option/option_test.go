package option

import (
	"context"
	"testing"

	"github.com/mx-space/nodepress/internal/testutil"
)

func TestGetDefaults(t *testing.T) {
	svc := NewService(testutil.NewDB(t))
	opt, err := svc.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if opt.DisabledComments || len(opt.BlocklistIPs) != 0 {
		t.Errorf("defaults = %+v", opt)
	}
}

func TestPatchMerges(t *testing.T) {
	svc := NewService(testutil.NewDB(t))
	ctx := context.Background()

	closed := true
	ips := []string{"10.0.0.1", `^192\.168\.`}
	if _, err := svc.Patch(ctx, PatchDTO{DisabledComments: &closed, BlocklistIPs: ips}); err != nil {
		t.Fatal(err)
	}

	words := []string{"casino"}
	opt, err := svc.Patch(ctx, PatchDTO{BlocklistWords: words})
	if err != nil {
		t.Fatal(err)
	}
	if !opt.DisabledComments {
		t.Error("disabled_comments lost on second patch")
	}
	if len(opt.BlocklistIPs) != 2 || opt.BlocklistIPs[1] != `^192\.168\.` {
		t.Errorf("ips = %v", opt.BlocklistIPs)
	}
	if len(opt.BlocklistWords) != 1 {
		t.Errorf("words = %v", opt.BlocklistWords)
	}

	open := false
	opt, err = svc.Patch(ctx, PatchDTO{DisabledComments: &open})
	if err != nil {
		t.Fatal(err)
	}
	if opt.DisabledComments {
		t.Error("disabled_comments not reset")
	}
}

func TestPatchValidation(t *testing.T) {
	empty := []string{"ok", ""}
	if err := (PatchDTO{BlocklistMails: empty}).Validate(); err == nil {
		t.Error("expected error for blank blocklist entry")
	}
}
