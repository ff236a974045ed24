package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/strategen/strategen/internal/clock"
	historydomain "github.com/strategen/strategen/internal/history/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// listLimit caps history listings; older documents stay queryable by id.
const listLimit = 50

type ServiceParam struct {
	fx.In

	Repo  historydomain.Repository
	Node  *snowflake.Node
	Clock clock.Clock
	Log   *zap.Logger
}

type Service struct {
	repo  historydomain.Repository
	node  *snowflake.Node
	clock clock.Clock
	log   *zap.Logger
}

func NewService(p ServiceParam) historydomain.Service {
	return &Service{
		repo:  p.Repo,
		node:  p.Node,
		clock: p.Clock,
		log:   p.Log.Named("history.service"),
	}
}

func (s *Service) Save(ctx context.Context, doc *historydomain.StrategyDocument) error {
	if strings.TrimSpace(doc.UserID) == "" {
		return historydomain.ErrInvalidUser
	}
	if doc.ID == 0 {
		doc.ID = s.node.Generate()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = s.clock.Now()
	}
	return s.repo.Insert(ctx, doc)
}

func (s *Service) List(ctx context.Context, userID string) ([]historydomain.StrategyDocument, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, historydomain.ErrInvalidUser
	}
	return s.repo.List(ctx, userID, listLimit)
}

func (s *Service) Get(ctx context.Context, userID string, id snowflake.ID) (*historydomain.StrategyDocument, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, historydomain.ErrInvalidUser
	}
	doc, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, historydomain.ErrNotFound
	}
	return doc, nil
}

func (s *Service) Delete(ctx context.Context, userID string, id snowflake.ID) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return historydomain.ErrInvalidUser
	}
	deleted, err := s.repo.SoftDelete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return historydomain.ErrNotFound
	}
	s.log.Debug("strategy document deleted",
		zap.String("user_id", userID),
		zap.Int64("document_id", int64(id)),
	)
	return nil
}
