// Package businessflow contains the core business logic and use cases for admin authentication workflows
package businessflow

import (
	"context"
	"strconv"
	"time"

	"github.com/billnet/admin-api/app/dto"
	"github.com/billnet/admin-api/models"
	"github.com/billnet/admin-api/repository"
	"github.com/xuri/excelize/v2"
)

// ActivityLogFlow serves the append-only activity log: paginated listing and
// XLSX export for offline audits.
type ActivityLogFlow interface {
	List(ctx context.Context, req *dto.ListActivityLogRequest) (*dto.ListActivityLogResponse, error)
	Export(ctx context.Context, req *dto.ListActivityLogRequest) (string, []byte, error)
}

// ActivityLogFlowImpl implements ActivityLogFlow
type ActivityLogFlowImpl struct {
	activityRepo repository.ActivityLogRepository
}

func NewActivityLogFlow(activityRepo repository.ActivityLogRepository) ActivityLogFlow {
	return &ActivityLogFlowImpl{activityRepo: activityRepo}
}

// List returns activity log entries newest-first, windowed by limit/offset
func (f *ActivityLogFlowImpl) List(ctx context.Context, req *dto.ListActivityLogRequest) (*dto.ListActivityLogResponse, error) {
	limit, offset, err := normalizeWindow(req.Limit, req.Offset)
	if err != nil {
		return nil, err
	}

	entries, err := f.fetch(ctx, req, limit, offset)
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to list activity log", err)
	}

	total, err := f.activityRepo.Count(ctx, models.ActivityLogFilter{
		AdminID: req.AdminID,
		Action:  req.Action,
	})
	if err != nil {
		return nil, NewBusinessError("INTERNAL_ERROR", "Failed to count activity log", err)
	}

	out := make([]dto.ActivityLogDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, ToActivityLogDTO(*entry))
	}

	return &dto.ListActivityLogResponse{
		Entries: out,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
	}, nil
}

// normalizeWindow applies defaults and bounds to limit/offset
func normalizeWindow(limit, offset int) (int, int, error) {
	if limit == 0 {
		limit = 20
	}
	if limit < 1 || limit > 100 {
		return 0, 0, NewBusinessError("VALIDATION_ERROR", "Limit must be between 1 and 100", ErrInvalidLimit)
	}
	if offset < 0 {
		return 0, 0, NewBusinessError("VALIDATION_ERROR", "Offset must not be negative", ErrInvalidOffset)
	}
	return limit, offset, nil
}

// Export renders the filtered activity log as an XLSX workbook. Capped at
// 10000 rows per export.
func (f *ActivityLogFlowImpl) Export(ctx context.Context, req *dto.ListActivityLogRequest) (string, []byte, error) {
	const exportLimit = 10000

	entries, err := f.fetch(ctx, req, exportLimit, 0)
	if err != nil {
		return "", nil, NewBusinessError("INTERNAL_ERROR", "Failed to fetch activity log", err)
	}

	xl := excelize.NewFile()
	defer func() { _ = xl.Close() }()

	sheet := "Activity Log"
	xl.SetSheetName(xl.GetSheetName(0), sheet)

	header := []string{"id", "admin_id", "admin_username", "action", "resource_type", "resource_id", "ip_address", "user_agent", "request_id", "success", "error_message", "created_at"}
	_ = xl.SetSheetRow(sheet, "A1", &header)

	for ri, entry := range entries {
		d := ToActivityLogDTO(*entry)
		adminID := ""
		if d.AdminID != nil {
			adminID = strconv.FormatUint(uint64(*d.AdminID), 10)
		}
		success := ""
		if d.Success != nil {
			success = strconv.FormatBool(*d.Success)
		}
		record := []string{
			strconv.FormatUint(uint64(d.ID), 10),
			adminID,
			d.AdminUsername,
			d.Action,
			d.ResourceType,
			d.ResourceID,
			d.IPAddress,
			d.UserAgent,
			d.RequestID,
			success,
			d.ErrorMessage,
			d.CreatedAt,
		}
		cellRef, _ := excelize.CoordinatesToCellName(1, ri+2)
		_ = xl.SetSheetRow(sheet, cellRef, &record)
	}

	buf, err := xl.WriteToBuffer()
	if err != nil {
		return "", nil, NewBusinessError("EXCEL_WRITE_ERROR", "Failed to write Excel file", err)
	}

	filename := "activity_log_" + time.Now().UTC().Format("20060102_150405") + ".xlsx"
	return filename, buf.Bytes(), nil
}

// fetch routes the request to the most specific repository query
func (f *ActivityLogFlowImpl) fetch(ctx context.Context, req *dto.ListActivityLogRequest, limit, offset int) ([]*models.ActivityLog, error) {
	switch {
	case req.SecurityOnly:
		return f.activityRepo.ListSecurityEvents(ctx, limit, offset)
	case req.AdminID != nil:
		return f.activityRepo.ListByAdmin(ctx, *req.AdminID, limit, offset)
	case req.Action != nil:
		return f.activityRepo.ListByAction(ctx, *req.Action, limit, offset)
	default:
		return f.activityRepo.ListRecent(ctx, limit, offset)
	}
}
