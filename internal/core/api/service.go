// Package api provides the gRPC engine API for FactKeeper.
package api

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/solatis/factkeeper/internal/core/workspace"
	"github.com/solatis/factkeeper/internal/ruleset"
	"github.com/solatis/factkeeper/internal/types"
)

// EngineService implements EngineAPIServer on top of a workspace.
// Thin orchestration layer: all state and rule semantics live in the
// workspace and the engine.
type EngineService struct {
	ws     *workspace.Workspace
	logger *zap.Logger
}

var _ EngineAPIServer = (*EngineService)(nil)

// NewEngineService creates service instance with dependencies.
func NewEngineService(ws *workspace.Workspace, logger *zap.Logger) (*EngineService, error) {
	if ws == nil {
		return nil, fmt.Errorf("workspace cannot be nil")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EngineService{ws: ws, logger: logger.Named("api")}, nil
}

// Run executes the rule set against the request's fact values and returns
// the EngineRunResult as a JSON object.
func (s *EngineService) Run(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	result, err := s.ws.Run(req.AsMap())
	if err != nil {
		s.logger.Warn("run failed", zap.Error(err))
		return nil, toStatus(err)
	}
	if err := ctx.Err(); err != nil {
		return nil, toStatus(err)
	}

	s.logger.Debug("run completed",
		zap.Int("events", len(result.Events)),
		zap.Int("rules", len(result.Results)),
	)
	return toStruct(result)
}

// Export returns the stored document.
func (s *EngineService) Export(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	data, err := s.ws.ExportJSON()
	if err != nil {
		return nil, toStatus(err)
	}
	return jsonToStruct(data)
}

// Validate returns {"rules": [...]} listing every rule with problems.
func (s *EngineService) Validate(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	reports := ruleset.ValidateRuleSet(s.ws.Rules(), s.ws.Facts())
	if reports == nil {
		reports = []ruleset.RuleReport{}
	}
	return toStruct(map[string]any{"rules": reports})
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to encode response: %w", err))
	}
	return jsonToStruct(data)
}

func jsonToStruct(data []byte) (*structpb.Struct, error) {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, toStatus(fmt.Errorf("failed to encode response: %w", err))
	}
	out, err := structpb.NewStruct(m)
	if err != nil {
		return nil, toStatus(fmt.Errorf("failed to encode response: %w", err))
	}
	return out, nil
}

// DecodeRunResult converts a Run response back into an EngineRunResult.
func DecodeRunResult(s *structpb.Struct) (*types.EngineRunResult, error) {
	data, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	var result types.EngineRunResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode run result: %w", err)
	}
	return &result, nil
}
