package post

import (
	"context"
	"errors"
	"testing"

	"github.com/mx-space/nodepress/internal/models"
	"github.com/mx-space/nodepress/internal/pkg/pagination"
	"github.com/mx-space/nodepress/internal/testutil"
)

func TestCreateNumbersSequentially(t *testing.T) {
	svc := NewService(testutil.NewDB(t))
	ctx := context.Background()

	first, err := svc.Create(ctx, CreatePostDTO{Title: "One", Slug: "one"})
	if err != nil {
		t.Fatal(err)
	}
	draft := models.PostDraft
	second, err := svc.Create(ctx, CreatePostDTO{Title: "Two", Slug: "two", State: &draft})
	if err != nil {
		t.Fatal(err)
	}
	if first.Number != 1 || second.Number != 2 {
		t.Errorf("numbers = %d, %d", first.Number, second.Number)
	}
	if first.State != models.PostPublished || second.State != models.PostDraft {
		t.Errorf("states = %d, %d", first.State, second.State)
	}

	if _, err := svc.Create(ctx, CreatePostDTO{Title: "Dup", Slug: "one"}); !errors.Is(err, ErrSlugExists) {
		t.Errorf("err = %v, want ErrSlugExists", err)
	}
}

func TestCreateRetriesTakenNumber(t *testing.T) {
	db := testutil.NewDB(t)
	attempts := testutil.CollideOnce(t, db, "posts", func(number int64) interface{} {
		return &models.PostModel{Number: number, Title: "Rival", Slug: "rival", State: models.PostPublished}
	})

	post, err := NewService(db).Create(context.Background(), CreatePostDTO{Title: "One", Slug: "one"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if *attempts != 2 || post.Number != 1 {
		t.Errorf("attempts = %d, number = %d", *attempts, post.Number)
	}
}

func TestGetByNumberHidesDrafts(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPost(t, db, 7, func(p *models.PostModel) { p.State = models.PostDraft })
	svc := NewService(db)
	ctx := context.Background()

	if _, err := svc.GetByNumber(ctx, 7, false); !errors.Is(err, ErrNotFound) {
		t.Errorf("visitor err = %v, want ErrNotFound", err)
	}
	if _, err := svc.GetByNumber(ctx, 7, true); err != nil {
		t.Errorf("admin err = %v", err)
	}
}

func TestUpdateTogglesComments(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPost(t, db, 1, func(p *models.PostModel) { p.DisabledComments = true })
	testutil.SeedPost(t, db, 2, func(p *models.PostModel) { p.Slug = "taken" })
	svc := NewService(db)
	ctx := context.Background()

	open := false
	post, err := svc.Update(ctx, 1, UpdatePostDTO{DisabledComments: &open})
	if err != nil {
		t.Fatal(err)
	}
	if post.DisabledComments {
		t.Error("comments still disabled")
	}

	taken := "taken"
	if _, err := svc.Update(ctx, 1, UpdatePostDTO{Slug: &taken}); !errors.Is(err, ErrSlugExists) {
		t.Errorf("err = %v, want ErrSlugExists", err)
	}
	if _, err := svc.Update(ctx, 99, UpdatePostDTO{}); !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListFiltersByState(t *testing.T) {
	db := testutil.NewDB(t)
	testutil.SeedPost(t, db, 1)
	testutil.SeedPost(t, db, 2, func(p *models.PostModel) { p.State = models.PostRecycle; p.Slug = "gone" })
	svc := NewService(db)

	published := models.PostPublished
	posts, pag, err := svc.List(context.Background(), pagination.Query{}, ListQuery{State: &published})
	if err != nil {
		t.Fatal(err)
	}
	if len(posts) != 1 || pag.Total != 1 || posts[0].Number != 1 {
		t.Errorf("posts = %+v, total = %d", posts, pag.Total)
	}
}

func TestDTOValidation(t *testing.T) {
	bad := models.PostState(5)
	empty := ""
	tests := []struct {
		name    string
		dto     interface{ Validate() error }
		wantErr bool
	}{
		{name: "create ok", dto: CreatePostDTO{Title: "t", Slug: "s"}},
		{name: "create missing slug", dto: CreatePostDTO{Title: "t"}, wantErr: true},
		{name: "create bad state", dto: CreatePostDTO{Title: "t", Slug: "s", State: &bad}, wantErr: true},
		{name: "update empty title", dto: UpdatePostDTO{Title: &empty}, wantErr: true},
		{name: "update nothing", dto: UpdatePostDTO{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.dto.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
