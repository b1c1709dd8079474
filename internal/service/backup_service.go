package service

import (
	"ptm/backend/internal/app"
	apperrors "ptm/backend/internal/errors"
	"ptm/backend/internal/model"
	"ptm/backend/internal/storage"
)

type BackupService struct {
	app          *app.App
	probeCeiling int
}

type UsageView struct {
	Namespace      string `json:"namespace"`
	UsedBytes      int    `json:"usedBytes"`
	AvailableBytes int    `json:"availableBytes"`
}

type ImportResult struct {
	Tasks    int `json:"tasks"`
	Projects int `json:"projects"`
	Tags     int `json:"tags"`
}

func NewBackupService(application *app.App, probeCeiling int) *BackupService {
	if probeCeiling <= 0 {
		probeCeiling = storage.DefaultProbeCeiling
	}
	return &BackupService{app: application, probeCeiling: probeCeiling}
}

func (s *BackupService) Export() (*model.ExportData, *apperrors.APIError) {
	data, err := s.app.Export()
	if err != nil {
		return nil, apperrors.FromDomain(err)
	}
	return data, nil
}

// Import accepts "overwrite" (default) or "merge".
func (s *BackupService) Import(raw []byte, strategy string, strict bool) (*ImportResult, *apperrors.APIError) {
	opts := storage.ImportOptions{Strategy: storage.Strategy(strategy), Strict: strict}
	if err := s.app.Import(raw, opts); err != nil {
		return nil, apperrors.FromDomain(err)
	}
	return &ImportResult{
		Tasks:    len(s.app.Tasks.List()),
		Projects: len(s.app.Projects.List()),
		Tags:     len(s.app.Tags.List()),
	}, nil
}

func (s *BackupService) Usage() UsageView {
	s.app.Flush()
	gateway := s.app.Gateway
	return UsageView{
		Namespace:      gateway.Namespace(),
		UsedBytes:      gateway.UsedSpace(),
		AvailableBytes: gateway.AvailableSpace(s.probeCeiling),
	}
}
