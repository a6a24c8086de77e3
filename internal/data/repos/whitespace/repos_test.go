package whitespace

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/whitespace-backend/internal/data/repos/testutil"
	types "github.com/yungbote/whitespace-backend/internal/domain/whitespace"
)

func TestPickModelPreference(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEmbeddingRepo(db, testutil.Logger(t))

	if _, err := repo.PickModel(ctx, nil, ""); !errors.Is(err, ErrNoEmbeddings) {
		t.Fatalf("empty table: got=%v want=ErrNoEmbeddings", err)
	}

	for i, id := range []string{"A1", "A2", "A3"} {
		testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: id, PubDate: 20240101 + i, Model: "big", Vector: []float64{1, 0}})
	}
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "B1", PubDate: 20240101, Model: "small|ta", Vector: []float64{1, 0}})

	cases := []struct {
		preferred string
		want      string
	}{
		{"big", "big"},
		{"missing", "small|ta"},
		{"", "small|ta"},
	}
	for _, tc := range cases {
		got, err := repo.PickModel(ctx, nil, tc.preferred)
		if err != nil {
			t.Fatalf("PickModel(%q): %v", tc.preferred, err)
		}
		if got != tc.want {
			t.Fatalf("PickModel(%q): got=%q want=%q", tc.preferred, got, tc.want)
		}
	}
}

func TestLoadOrdersFocusFirstAndFiltersDates(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEmbeddingRepo(db, testutil.Logger(t))

	seeds := []testutil.PatentSeed{
		{PubID: "P1", PubDate: 20240301, Title: "Battery cell", CPC: []string{"H01M10/05"}, Vector: []float64{1, 0}},
		{PubID: "P2", PubDate: 20240401, Title: "Solar panel", CPC: []string{"H02S40/00"}, Vector: []float64{0, 1}},
		{PubID: "P3", PubDate: 20240201, Abstract: "solid-state BATTERY electrolyte", CPC: []string{"H01M10/0562"}, Vector: []float64{1, 1}},
		{PubID: "P4", PubDate: 20230101, Title: "Battery old", CPC: []string{"H01M4/00"}, Vector: []float64{1, 0}},
		{PubID: "P5", Title: "Undated battery", Vector: []float64{1, 0}},
	}
	for _, s := range seeds {
		testutil.SeedPatent(t, ctx, db, s)
	}

	from := 20240101
	rows, err := repo.Load(ctx, nil, LoadFilter{
		Model:         "test|ta",
		DateFrom:      &from,
		FocusKeywords: []string{"battery"},
		FocusCPCLike:  []string{"H01M10%"},
		Limit:         10,
	})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	var ids []string
	for _, r := range rows {
		ids = append(ids, r.PubID)
	}
	want := []string{"P1", "P3", "P2"}
	if len(ids) != len(want) {
		t.Fatalf("ids: got=%v want=%v", ids, want)
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("ids: got=%v want=%v", ids, want)
		}
	}
	if !rows[0].IsFocus || !rows[1].IsFocus || rows[2].IsFocus {
		t.Fatalf("focus flags: %+v", rows)
	}

	to := 20240301
	rows, err = repo.Load(ctx, nil, LoadFilter{Model: "test|ta", DateFrom: &from, DateTo: &to, Limit: 10})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 1 || rows[0].PubID != "P3" || rows[0].IsFocus {
		t.Fatalf("date_to exclusive and no focus families: %+v", rows)
	}
}

func TestLoadUndatedLastAndLimit(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEmbeddingRepo(db, testutil.Logger(t))

	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "U1", Vector: []float64{1, 0}})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "D1", PubDate: 20200101, Vector: []float64{1, 0}})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "D2", PubDate: 20210101, Vector: []float64{1, 0}})

	rows, err := repo.Load(ctx, nil, LoadFilter{Model: "test|ta", Limit: 2})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 || rows[0].PubID != "D2" || rows[1].PubID != "D1" {
		t.Fatalf("rows: %+v", rows)
	}
}

func TestLoadByCanonicalIDsIncludesAliases(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewEmbeddingRepo(db, testutil.Logger(t))

	acme := testutil.SeedCanonical(t, ctx, db, "ACME", "Acme Inc.")
	id := acme.ID
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "L1", PubDate: 20240101, Assignee: "ACME Corp", Canon: &id, Vector: []float64{1, 0}})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "L2", PubDate: 20240102, Assignee: "Acme Inc.", Vector: []float64{1, 0}})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "X1", PubDate: 20240103, Assignee: "Other", Vector: []float64{1, 0}})

	rows, err := repo.Load(ctx, nil, LoadFilter{Model: "test|ta", CanonicalIDs: []uuid.UUID{acme.ID}, Limit: 10})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows: got=%d want=2 (%+v)", len(rows), rows)
	}
	if rows[1].AssigneeName != "ACME" {
		t.Fatalf("canonical name should replace raw assignee: %+v", rows[1])
	}
}

func TestAssigneeSearchAndEnsure(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewAssigneeRepo(db, testutil.Logger(t))

	id1, err := repo.EnsureCanonical(ctx, nil, "ACME ROBOTICS")
	if err != nil {
		t.Fatalf("EnsureCanonical: %v", err)
	}
	id2, err := repo.EnsureCanonical(ctx, nil, "ACME ROBOTICS")
	if err != nil || id1 != id2 {
		t.Fatalf("EnsureCanonical not idempotent: %v %v err=%v", id1, id2, err)
	}
	aliasID, err := repo.EnsureAlias(ctx, nil, id1, "Acme Robotics, Inc.")
	if err != nil {
		t.Fatalf("EnsureAlias: %v", err)
	}
	again, err := repo.EnsureAlias(ctx, nil, id1, "Acme Robotics, Inc.")
	if err != nil || again != aliasID {
		t.Fatalf("EnsureAlias not idempotent: %v %v err=%v", aliasID, again, err)
	}
	if _, err := repo.EnsureCanonical(ctx, nil, "ZENITH"); err != nil {
		t.Fatalf("EnsureCanonical: %v", err)
	}

	matches, err := repo.SearchByPatterns(ctx, nil, []string{"%robotics%"}, 0)
	if err != nil {
		t.Fatalf("SearchByPatterns: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("matches: got=%+v", matches)
	}
	for _, m := range matches {
		if m.CanonicalID != id1 || m.CanonicalName != "ACME ROBOTICS" {
			t.Fatalf("unexpected match: %+v", m)
		}
	}
	if got, _ := repo.SearchByPatterns(ctx, nil, []string{"  "}, 0); len(got) != 0 {
		t.Fatalf("blank patterns should match nothing: %+v", got)
	}
}

func TestLinkPatentsAndListNames(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewAssigneeRepo(db, testutil.Logger(t))

	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "N1", Assignee: "Beta Ltd"})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "N2", Assignee: "Beta Ltd"})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "N3", Assignee: "Alpha"})
	testutil.SeedPatent(t, ctx, db, testutil.PatentSeed{PubID: "N4"})

	names, err := repo.ListDistinctAssigneeNames(ctx, nil, "", 10)
	if err != nil {
		t.Fatalf("ListDistinctAssigneeNames: %v", err)
	}
	if len(names) != 2 || names[0] != "Alpha" || names[1] != "Beta Ltd" {
		t.Fatalf("names: %v", names)
	}
	page, _ := repo.ListDistinctAssigneeNames(ctx, nil, "Alpha", 10)
	if len(page) != 1 || page[0] != "Beta Ltd" {
		t.Fatalf("page after Alpha: %v", page)
	}

	cid, _ := repo.EnsureCanonical(ctx, nil, "BETA")
	aid, _ := repo.EnsureAlias(ctx, nil, cid, "Beta Ltd")
	n, err := repo.LinkPatents(ctx, nil, "Beta Ltd", aid, cid)
	if err != nil || n != 2 {
		t.Fatalf("LinkPatents: n=%d err=%v", n, err)
	}
	var p types.Patent
	if err := db.Where("pub_id = ?", "N1").First(&p).Error; err != nil {
		t.Fatalf("reload: %v", err)
	}
	if p.CanonicalAssigneeNameID == nil || *p.CanonicalAssigneeNameID != cid {
		t.Fatalf("canonical id not linked: %+v", p)
	}
}

func TestUpsertsAreLastWriteWins(t *testing.T) {
	db := testutil.DB(t)
	ctx := context.Background()
	repo := NewAnalysisRepo(db, testutil.Logger(t))

	if err := repo.UpsertEdges(ctx, nil, []types.KnnEdge{
		{UserID: "u1", Src: "a", Dst: "b", W: 0.4},
		{UserID: "u2", Src: "a", Dst: "b", W: 0.9},
	}); err != nil {
		t.Fatalf("UpsertEdges: %v", err)
	}
	if err := repo.UpsertEdges(ctx, nil, []types.KnnEdge{{UserID: "u1", Src: "a", Dst: "b", W: 0.7}}); err != nil {
		t.Fatalf("UpsertEdges again: %v", err)
	}
	edges, err := repo.ListEdges(ctx, nil, "u1")
	if err != nil {
		t.Fatalf("ListEdges: %v", err)
	}
	if len(edges) != 1 || edges[0].W != 0.7 {
		t.Fatalf("u1 edges: %+v", edges)
	}
	other, _ := repo.ListEdges(ctx, nil, "u2")
	if len(other) != 1 || other[0].W != 0.9 {
		t.Fatalf("u2 edges must be untouched: %+v", other)
	}

	row := types.UserWhitespaceAnalysis{UserID: "u1", PubID: "a", Model: "m", ClusterID: 1, LocalDensity: 0.5, WhitespaceScore: 0.2}
	if err := repo.UpsertScores(ctx, nil, []types.UserWhitespaceAnalysis{row}); err != nil {
		t.Fatalf("UpsertScores: %v", err)
	}
	row.ClusterID, row.WhitespaceScore = 3, 0.8
	if err := repo.UpsertScores(ctx, nil, []types.UserWhitespaceAnalysis{row}); err != nil {
		t.Fatalf("UpsertScores again: %v", err)
	}
	scores, err := repo.ListScores(ctx, nil, "u1", "m")
	if err != nil {
		t.Fatalf("ListScores: %v", err)
	}
	if len(scores) != 1 || scores[0].ClusterID != 3 || scores[0].WhitespaceScore != 0.8 {
		t.Fatalf("scores: %+v", scores)
	}
}
