package workflow

import (
	"context"
	"net/http"
	"testing"
	"time"

	"site-defects/internal/backend/backendtest"
	"site-defects/internal/metrics"
	"site-defects/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const improvementRoute = "POST /improvements/by-unique-code/:code"

func TestEndToEndDefectLifecycle(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	sub, err := f.svc.SubmitDefect(ctx, SubmitRequest{
		Draft: draft("crack in wall"),
		Mark:  &MarkInput{BaseMapID: 5, X: 100, Y: 200},
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusInProgress, sub.Defect.Status)
	require.NotNil(t, sub.Mark)
	assert.Equal(t, 5, sub.Mark.BaseMapID)
	assert.Equal(t, 100, sub.Mark.X)
	assert.Equal(t, 200, sub.Mark.Y)
	assert.Equal(t, 1.0, sub.Mark.Scale)

	date, err := models.ParseDate("2024-06-01")
	require.NoError(t, err)
	rep, err := f.svc.SubmitRepairAndAdvance(ctx, RepairRequest{
		Code:            sub.Defect.UniqueCode,
		Content:         "patched and repainted",
		ImprovementDate: date,
	})
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, rep.Defect.Status)

	imps := f.srv.Improvements()
	require.Len(t, imps, 1)
	assert.Equal(t, "patched and repainted", imps[0].Content)
	assert.Equal(t, "2024-06-01", imps[0].ImprovementDate)
	assert.Equal(t, sub.Defect.ID, imps[0].DefectID)

	done, err := f.svc.Confirm(ctx, 3, sub.Defect.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, done.Status)

	assert.Equal(t, []string{
		models.AuditActionCreate,
		models.AuditActionRepair,
		models.AuditActionCreate,
		models.AuditActionStatusChange,
		models.AuditActionStatusChange,
	}, f.audit.actions())
}

func TestSubmitRepair_UnknownCodeHasNoSideEffects(t *testing.T) {
	f := setup(t)

	_, err := f.svc.SubmitRepair(context.Background(), RepairRequest{
		Code:            "no-such-code",
		Content:         "fixed",
		ImprovementDate: models.DateOf(today),
		Photos:          []models.PhotoUpload{jpeg("a")},
	})
	require.ErrorIs(t, err, models.ErrNotFound)
	assert.Zero(t, f.srv.Hits(improvementRoute))
	assert.Zero(t, f.srv.Hits("POST /photos/"))
	assert.Empty(t, f.audit.actions())
	assert.Equal(t, 1.0, f.runs(t, workflowRepair, metrics.OutcomeRejected))
}

func TestSubmitRepair_RejectedUnlessInProgress(t *testing.T) {
	for _, status := range []string{"已完成", "已取消", "等待中", "待確認", "unknown"} {
		t.Run(status, func(t *testing.T) {
			f := setup(t)
			d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str(status)})

			_, err := f.svc.SubmitRepair(context.Background(), RepairRequest{
				Code:            d.UniqueCode,
				Content:         "fixed",
				ImprovementDate: models.DateOf(today),
			})
			require.ErrorIs(t, err, models.ErrInvalidState)
			assert.Zero(t, f.srv.Hits(improvementRoute))
			assert.Empty(t, f.srv.Improvements())
		})
	}
}

func TestSubmitRepair_Validation(t *testing.T) {
	f := setup(t)
	d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str("改善中")})

	for _, req := range []RepairRequest{
		{Code: d.UniqueCode, Content: "  ", ImprovementDate: models.DateOf(today)},
		{Code: d.UniqueCode, Content: "fixed"},
		{Code: "", Content: "fixed", ImprovementDate: models.DateOf(today)},
		{Code: d.UniqueCode, Content: "fixed", ImprovementDate: models.DateOf(today), Photos: []models.PhotoUpload{{FileName: "x"}}},
	} {
		_, err := f.svc.SubmitRepair(context.Background(), req)
		require.ErrorIs(t, err, models.ErrValidation)
	}
	assert.Zero(t, f.srv.Hits("GET /defects/unique_code/:code"))
}

func TestSubmitRepair_PhotosKeyOffImprovement(t *testing.T) {
	f := setup(t)
	d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str("改善中")})

	res, err := f.svc.SubmitRepair(context.Background(), RepairRequest{
		Code:            d.UniqueCode,
		Content:         "fixed",
		ImprovementDate: models.DateOf(today),
		Photos:          []models.PhotoUpload{jpeg("after-1"), jpeg("after-2")},
	})
	require.NoError(t, err)
	require.Len(t, res.Photos, 2)
	for _, p := range f.srv.Photos() {
		assert.Equal(t, "improvement", p.RelatedType)
		assert.Equal(t, res.Improvement.ID, p.RelatedID)
		assert.NotEqual(t, d.ID, p.RelatedID)
	}

	// SubmitRepair alone leaves the status to the follow-up call
	raw, ok := f.srv.Defect(d.ID)
	require.True(t, ok)
	assert.Equal(t, "改善中", *raw.Status)
}

func TestSubmitRepair_PhotoFailureIsPartial(t *testing.T) {
	f := setup(t)
	d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str("改善中")})
	f.srv.FailNext("POST /photos/", http.StatusInternalServerError)

	res, err := f.svc.SubmitRepairAndAdvance(context.Background(), RepairRequest{
		Code:            d.UniqueCode,
		Content:         "fixed",
		ImprovementDate: models.DateOf(today),
		Photos:          []models.PhotoUpload{jpeg("a")},
	})
	pf, ok := models.AsPartialFailure(err)
	require.True(t, ok, "want partial failure, got %v", err)
	assert.Equal(t, "photos[0]", pf.Step)
	assert.Equal(t, []string{stepImprovement}, pf.Completed)
	assert.Equal(t, res.Improvement.ID, pf.ImprovementID)
	assert.Len(t, f.srv.Improvements(), 1)

	// status was not advanced because the workflow stopped at the photos
	raw, _ := f.srv.Defect(d.ID)
	assert.Equal(t, "改善中", *raw.Status)
}

func TestSubmitRepairAndAdvance_RetryAfterPhotoFailureResumes(t *testing.T) {
	f := setup(t)
	d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str("改善中")})
	f.srv.FailNext("POST /photos/", http.StatusBadGateway)
	req := RepairRequest{
		Code:            d.UniqueCode,
		Content:         " fixed ",
		ImprovementDate: models.DateOf(today),
		Photos:          []models.PhotoUpload{jpeg("a")},
	}

	first, err := f.svc.SubmitRepairAndAdvance(context.Background(), req)
	_, ok := models.AsPartialFailure(err)
	require.True(t, ok, "want partial failure, got %v", err)

	second, err := f.svc.SubmitRepairAndAdvance(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Improvement.ID, second.Improvement.ID)
	assert.Len(t, f.srv.Improvements(), 1)
	assert.Len(t, f.srv.Photos(), 1)
	assert.Equal(t, 1, f.srv.Hits("POST /improvements/by-unique-code/:code"))

	raw, _ := f.srv.Defect(d.ID)
	assert.Equal(t, "待確認", *raw.Status)
}

func TestSubmitRepairAndAdvance_SameReportAfterRejectFilesAgain(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str("改善中")})
	req := RepairRequest{Code: d.UniqueCode, Content: "fixed", ImprovementDate: models.DateOf(today)}

	_, err := f.svc.SubmitRepairAndAdvance(ctx, req)
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, 3, d.ID)
	require.NoError(t, err)

	_, err = f.svc.SubmitRepairAndAdvance(ctx, req)
	require.NoError(t, err)
	assert.Len(t, f.srv.Improvements(), 2)
}

func TestSubmitRepairAndAdvance_StatusFailureIsPartial(t *testing.T) {
	f := setup(t)
	d := f.srv.SeedDefect(backendtest.Defect{ProjectID: 1, SubmittedID: 1, Description: "x", Status: backendtest.Str("改善中")})
	f.srv.FailNext("PUT /defects/:id", http.StatusBadGateway)

	_, err := f.svc.SubmitRepairAndAdvance(context.Background(), RepairRequest{
		Code:            d.UniqueCode,
		Content:         "fixed",
		ImprovementDate: models.DateOf(today),
	})
	pf, ok := models.AsPartialFailure(err)
	require.True(t, ok, "want partial failure, got %v", err)
	assert.Equal(t, stepStatus, pf.Step)
	assert.Equal(t, d.ID, pf.DefectID)
	assert.ErrorIs(t, err, models.ErrNetwork)

	// retrying the follow-up alone completes the transition
	updated, err := f.svc.AdvanceAfterRepair(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, updated.Status)

	again, err := f.svc.AdvanceAfterRepair(context.Background(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPendingConfirmation, again.Status)
}

func TestIsRepairable(t *testing.T) {
	assert.True(t, IsRepairable(&models.Defect{Status: models.StatusInProgress}))
	assert.False(t, IsRepairable(&models.Defect{Status: models.StatusPendingConfirmation}))
	assert.False(t, IsRepairable(&models.Defect{Status: models.StatusUnset}))
	assert.False(t, IsRepairable(nil))
}

func TestServiceToday(t *testing.T) {
	f := setup(t)
	assert.Equal(t, today, f.svc.Today())
	assert.WithinDuration(t, time.Now(), NewService(Options{}).Today(), time.Minute)
}
