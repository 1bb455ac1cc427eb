package api

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/joescharf/pinpoint/internal/export"
	"github.com/joescharf/pinpoint/internal/filter"
	"github.com/joescharf/pinpoint/internal/models"
	"github.com/joescharf/pinpoint/internal/remote"
)

type commentRef struct {
	ID    string      `json:"id"`
	Actor models.User `json:"actor"`
}

func (p commentRef) validate() error {
	if p.ID == "" {
		return &models.ValidationError{Fields: []string{"id"}, Msg: "id is required"}
	}
	return nil
}

// actionDispatcher wires the named actions accepted on /api/v1/actions.
func (s *Server) actionDispatcher() *remote.Dispatcher {
	d := remote.NewDispatcher()

	d.Handle(remote.ActionResolveComment, func(ctx context.Context, params json.RawMessage) (any, error) {
		var p commentRef
		if err := remote.DecodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		return s.comments.Resolve(ctx, p.ID, p.Actor)
	})

	d.Handle(remote.ActionSetStatus, func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			commentRef
			Status models.CommentStatus `json:"status"`
		}
		if err := remote.DecodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		return s.comments.SetStatus(ctx, p.ID, p.Status, p.Actor)
	})

	d.Handle(remote.ActionDeleteComment, func(ctx context.Context, params json.RawMessage) (any, error) {
		var p commentRef
		if err := remote.DecodeParams(params, &p); err != nil {
			return nil, err
		}
		if err := p.validate(); err != nil {
			return nil, err
		}
		return nil, s.comments.Delete(ctx, p.ID, p.Actor)
	})

	d.Handle(remote.ActionAnalyze, func(ctx context.Context, params json.RawMessage) (any, error) {
		var p struct {
			MediaID  string          `json:"media_id"`
			Criteria models.Criteria `json:"criteria"`
		}
		if err := remote.DecodeParams(params, &p); err != nil {
			return nil, err
		}
		list, err := s.comments.List(ctx, p.MediaID, p.Criteria, filter.DefaultOrder)
		if err != nil {
			return nil, err
		}
		return s.overlay.Run(ctx, list)
	})

	d.Handle(remote.ActionExport, func(ctx context.Context, params json.RawMessage) (any, error) {
		var p exportRequest
		if err := remote.DecodeParams(params, &p); err != nil {
			return nil, err
		}
		opts, err := export.DecodeOptions(p.Options)
		if err != nil {
			return nil, err
		}
		in, err := export.Gather(ctx, s.comments, s.overlay, p.MediaID, p.Criteria, opts.Include.AIAnalysis)
		if err != nil {
			return nil, err
		}
		res, err := s.exporter.Export(ctx, in, opts)
		if err != nil {
			return nil, err
		}
		path, err := s.downloader.Save(res)
		if err != nil {
			return nil, err
		}
		s.log.Info("export saved", zap.String("path", path), zap.String("export_id", res.ID))
		return map[string]any{
			"id":       res.ID,
			"path":     path,
			"filename": res.Filename,
			"format":   res.Format,
			"comments": res.Comments,
			"bytes":    len(res.Data),
		}, nil
	})

	return d
}
