package workflow

import (
	"context"
	"net/http"
	"testing"

	"site-defects/internal/backend"
	"site-defects/internal/backend/backendtest"
	"site-defects/internal/metrics"
	"site-defects/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitDefect_FreshDefectDefaults(t *testing.T) {
	f := setup(t)

	res, err := f.svc.SubmitDefect(context.Background(), SubmitRequest{Draft: draft("loose tile")})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, res.Defect.Status)
	assert.Nil(t, res.Defect.CategoryID)
	assert.Nil(t, res.Defect.AssignedVendorID)
	assert.Equal(t, models.UrgencyUnknown, res.Defect.Urgency(today))
	assert.Nil(t, res.Mark)
	assert.Empty(t, res.Photos)
	assert.Equal(t, []string{models.AuditActionCreate}, f.audit.actions())
	assert.Equal(t, 1.0, f.runs(t, workflowSubmit, metrics.OutcomeOK))
}

func TestSubmitDefect_MarkAndPhotosInOrder(t *testing.T) {
	f := setup(t)

	res, err := f.svc.SubmitDefect(context.Background(), SubmitRequest{
		Key:    "form-1",
		Draft:  draft("crack in wall"),
		Mark:   &MarkInput{BaseMapID: 5, X: 100, Y: 200},
		Photos: []models.PhotoUpload{jpeg("a"), jpeg("b")},
	})
	require.NoError(t, err)
	require.NotNil(t, res.Mark)
	assert.Equal(t, res.Defect.ID, res.Mark.DefectID)
	assert.Equal(t, 1.0, res.Mark.Scale)
	require.Len(t, res.Photos, 2)

	for _, p := range f.srv.Photos() {
		assert.Equal(t, "defect", p.RelatedType)
		assert.Equal(t, res.Defect.ID, p.RelatedID)
	}
	marks := f.srv.Marks()
	require.Len(t, marks, 1)
	assert.Equal(t, 5, marks[0].BaseMapID)
}

func TestSubmitDefect_ValidationBeforeAnyCall(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	cases := []SubmitRequest{
		{Draft: draft("   ")},
		{Draft: models.DefectDraft{ProjectID: 1, Description: "no submitter"}},
		{Draft: draft("bad mark"), Mark: &MarkInput{BaseMapID: 0, X: 1, Y: 1}},
		{Draft: draft("negative"), Mark: &MarkInput{BaseMapID: 1, X: -1, Y: 1}},
		{Draft: draft("empty photo"), Photos: []models.PhotoUpload{{FileName: "x.jpg"}}},
	}
	for _, req := range cases {
		_, err := f.svc.SubmitDefect(ctx, req)
		require.ErrorIs(t, err, models.ErrValidation, req.Draft.Description)
	}
	assert.Zero(t, f.srv.Hits("POST /defects/"))
	assert.Equal(t, float64(len(cases)), f.runs(t, workflowSubmit, metrics.OutcomeRejected))
}

func TestSubmitDefect_PreviousDefectReference(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	other := f.srv.SeedDefect(backendtest.Defect{ProjectID: 2, SubmittedID: 1, Description: "elsewhere"})

	d := draft("follow-up")
	d.PreviousDefectID = intPtr(other.ID)
	_, err := f.svc.SubmitDefect(ctx, SubmitRequest{Draft: d})
	require.ErrorIs(t, err, models.ErrReference)

	d.PreviousDefectID = intPtr(999)
	_, err = f.svc.SubmitDefect(ctx, SubmitRequest{Draft: d})
	require.ErrorIs(t, err, models.ErrReference)
	assert.Zero(t, f.srv.Hits("POST /defects/"))
}

func TestSubmitDefect_PreviousDefectSurvivesTransitions(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	prev := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "original", Status: backendtest.Str("已完成")})

	d := draft("came back")
	d.PreviousDefectID = intPtr(prev.ID)
	res, err := f.svc.SubmitDefect(ctx, SubmitRequest{Draft: d})
	require.NoError(t, err)
	id := res.Defect.ID

	_, err = f.svc.Hold(ctx, 1, id)
	require.NoError(t, err)
	_, err = f.svc.Resume(ctx, 1, id)
	require.NoError(t, err)
	_, err = f.svc.SubmitRepairAndAdvance(ctx, RepairRequest{Code: res.Defect.UniqueCode, Content: "fixed", ImprovementDate: models.DateOf(today)})
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, 1, id)
	require.NoError(t, err)

	got, err := f.api.GetDefect(ctx, id, backend.DefectQuery{})
	require.NoError(t, err)
	require.NotNil(t, got.PreviousDefectID)
	assert.Equal(t, prev.ID, *got.PreviousDefectID)
	assert.Equal(t, models.StatusInProgress, got.Status)
}

func TestSubmitDefect_MarkFailureIsPartialAndResumable(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := SubmitRequest{Key: "form-2", Draft: draft("leak"), Mark: &MarkInput{BaseMapID: 5, X: 1, Y: 2}}

	f.srv.FailNext("POST /defect-marks/", http.StatusInternalServerError)
	res, err := f.svc.SubmitDefect(ctx, req)
	pf, ok := models.AsPartialFailure(err)
	require.True(t, ok, "want partial failure, got %v", err)
	assert.Equal(t, []string{stepDefect}, pf.Completed)
	assert.Equal(t, stepMark, pf.Step)
	assert.Equal(t, res.Defect.ID, pf.DefectID)
	assert.ErrorIs(t, err, models.ErrNetwork)
	assert.Equal(t, 1.0, f.runs(t, workflowSubmit, metrics.OutcomePartial))

	again, err := f.svc.SubmitDefect(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Equal(t, res.Defect.ID, again.Defect.ID)
	assert.Equal(t, 1, f.srv.Hits("POST /defects/"))
	assert.Len(t, f.srv.Marks(), 1)

	// a third run finds everything recorded
	third, err := f.svc.SubmitDefect(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, again.Mark.ID, third.Mark.ID)
	assert.Len(t, f.srv.Marks(), 1)
}

func TestSubmitDefect_PhotoFailureKeepsEarlierPhotos(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	req := SubmitRequest{Key: "form-3", Draft: draft("stain"), Photos: []models.PhotoUpload{jpeg("a"), jpeg("b")}}

	// first upload passes, second fails
	f.srv.FailNext("POST /photos/", 0, http.StatusBadGateway)
	res, err := f.svc.SubmitDefect(ctx, req)
	pf, ok := models.AsPartialFailure(err)
	require.True(t, ok, "want partial failure, got %v", err)
	assert.Equal(t, "photos[1]", pf.Step)
	assert.Equal(t, []string{stepDefect, "photos[0]"}, pf.Completed)
	assert.Len(t, res.Photos, 1)
	assert.Len(t, f.srv.Photos(), 1)

	again, err := f.svc.SubmitDefect(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Resumed)
	assert.Len(t, again.Photos, 1)
	photos := f.srv.Photos()
	require.Len(t, photos, 2)
	for _, p := range photos {
		assert.Equal(t, res.Defect.ID, p.RelatedID)
	}
}

func TestSubmitDefect_LedgerOutageStillSubmits(t *testing.T) {
	f := setup(t)
	f.mr.Close()

	res, err := f.svc.SubmitDefect(context.Background(), SubmitRequest{Key: "k", Draft: draft("no ledger"), Mark: &MarkInput{BaseMapID: 1}})
	require.NoError(t, err)
	assert.NotZero(t, res.Defect.ID)
	assert.NotNil(t, res.Mark)
}

func TestAbandon_NextSubmissionStartsOver(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	first, err := f.svc.SubmitDefect(ctx, SubmitRequest{Key: "draft-1", Draft: draft("crack")})
	require.NoError(t, err)
	again, err := f.svc.SubmitDefect(ctx, SubmitRequest{Key: "draft-1", Draft: draft("crack")})
	require.NoError(t, err)
	assert.Equal(t, first.Defect.ID, again.Defect.ID)

	f.svc.Abandon(ctx, "draft-1")
	fresh, err := f.svc.SubmitDefect(ctx, SubmitRequest{Key: "draft-1", Draft: draft("crack")})
	require.NoError(t, err)
	assert.NotEqual(t, first.Defect.ID, fresh.Defect.ID)
	assert.Equal(t, 2, f.srv.Hits("POST /defects/"))

	// nothing recorded is fine
	f.svc.Abandon(ctx, "")
	f.svc.Abandon(ctx, "never-used")
}

func TestSubmitDefect_CreateFailureIsNotPartial(t *testing.T) {
	f := setup(t)
	f.srv.FailNext("POST /defects/", http.StatusServiceUnavailable)

	res, err := f.svc.SubmitDefect(context.Background(), SubmitRequest{Draft: draft("down")})
	require.ErrorIs(t, err, models.ErrNetwork)
	assert.Nil(t, res)
	_, partial := models.AsPartialFailure(err)
	assert.False(t, partial)
	assert.Equal(t, 1.0, f.runs(t, workflowSubmit, metrics.OutcomeFailed))
}
