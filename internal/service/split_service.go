package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/fintrack/internal/models"
	"github.com/mmynk/fintrack/internal/split"
	"github.com/mmynk/fintrack/pkg/api"
)

// SplitService implements the Connect SplitService.
type SplitService struct {
	coordinator *split.Coordinator
}

// NewSplitService creates a new SplitService backed by c.
func NewSplitService(c *split.Coordinator) *SplitService {
	return &SplitService{coordinator: c}
}

// splitInput turns a request into coordinator input, dividing the total
// equally when asked to.
func splitInput(msg *api.CreateSplitRequest) (split.CreateInput, error) {
	date, err := api.ParseDate(msg.Date)
	if err != nil {
		return split.CreateInput{}, err
	}

	in := split.CreateInput{
		TotalAmount:        msg.TotalAmount,
		RequesterShare:     msg.RequesterShare,
		Description:        msg.Description,
		Category:           msg.Category,
		Date:               date,
		RequesterAccountID: msg.RequesterAccountID,
	}

	if msg.SplitEqually {
		if len(msg.Participants) > 0 {
			return split.CreateInput{}, fmt.Errorf("participants must be omitted when splitting equally; use participantIds")
		}
		in.RequesterShare, in.Participants, err = split.EqualShares(msg.TotalAmount, msg.ParticipantIDs)
		if err != nil {
			return split.CreateInput{}, err
		}
		return in, nil
	}

	for _, p := range msg.Participants {
		in.Participants = append(in.Participants, split.Share{UserID: p.UserID, Amount: p.Amount})
	}
	return in, nil
}

// CreateSplit opens a split request and debits the caller's own share.
func (s *SplitService) CreateSplit(ctx context.Context, req *connect.Request[api.CreateSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateSplit request received",
		"user_id", userID,
		"total", req.Msg.TotalAmount.String(),
		"split_equally", req.Msg.SplitEqually,
	)

	in, err := splitInput(req.Msg)
	if err != nil {
		return nil, invalidArgument(err)
	}

	created, err := s.coordinator.Create(ctx, userID, in)
	if err != nil {
		return nil, toConnectError("CreateSplit", err)
	}
	return connect.NewResponse(&api.SplitResponse{Data: toAPISplit(created)}), nil
}

func (s *SplitService) GetSplit(ctx context.Context, req *connect.Request[api.GetSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	got, err := s.coordinator.Get(ctx, userID, req.Msg.SplitID)
	if err != nil {
		return nil, toConnectError("GetSplit", err)
	}
	return connect.NewResponse(&api.SplitResponse{Data: toAPISplit(got)}), nil
}

// ListSplits returns the splits the caller created and those they were asked to join.
func (s *SplitService) ListSplits(ctx context.Context, req *connect.Request[api.ListSplitsRequest]) (*connect.Response[api.ListSplitsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	lists, err := s.coordinator.List(ctx, userID)
	if err != nil {
		return nil, toConnectError("ListSplits", err)
	}

	slog.Info("ListSplits successful",
		"user_id", userID,
		"created", len(lists.Created),
		"participating", len(lists.Participating),
	)
	return connect.NewResponse(&api.ListSplitsResponse{Data: &api.SplitLists{
		Created:       toAPISplits(lists.Created),
		Participating: toAPISplits(lists.Participating),
	}}), nil
}

// RespondToSplit approves or declines the caller's share.
func (s *SplitService) RespondToSplit(ctx context.Context, req *connect.Request[api.RespondToSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("RespondToSplit request received", "user_id", userID, "split_id", req.Msg.SplitID, "action", req.Msg.Action)

	var updated *models.SplitRequest
	switch req.Msg.Action {
	case api.RespondApprove:
		updated, err = s.coordinator.Approve(ctx, req.Msg.SplitID, userID, req.Msg.AccountID)
	case api.RespondDecline:
		updated, err = s.coordinator.Decline(ctx, req.Msg.SplitID, userID)
	default:
		return nil, invalidArgument(fmt.Errorf("invalid action %q: must be %q or %q", req.Msg.Action, api.RespondApprove, api.RespondDecline))
	}
	if err != nil {
		return nil, toConnectError("RespondToSplit", err)
	}
	return connect.NewResponse(&api.SplitResponse{Data: toAPISplit(updated)}), nil
}

// ResolveSplit settles declined shares.
func (s *SplitService) ResolveSplit(ctx context.Context, req *connect.Request[api.ResolveSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("ResolveSplit request received", "user_id", userID, "split_id", req.Msg.SplitID, "action", req.Msg.Action)

	resolved, err := s.coordinator.Resolve(ctx, userID, req.Msg.SplitID, split.ResolveInput{
		Action:         split.Action(req.Msg.Action),
		AccountID:      req.Msg.AccountID,
		ParticipantIDs: req.Msg.ParticipantIDs,
	})
	if err != nil {
		return nil, toConnectError("ResolveSplit", err)
	}
	return connect.NewResponse(&api.SplitResponse{Data: toAPISplit(resolved)}), nil
}

// CancelSplit withdraws a pending split and refunds every debit it caused.
func (s *SplitService) CancelSplit(ctx context.Context, req *connect.Request[api.CancelSplitRequest]) (*connect.Response[api.SplitResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("CancelSplit request received", "user_id", userID, "split_id", req.Msg.SplitID)

	cancelled, err := s.coordinator.Cancel(ctx, userID, req.Msg.SplitID)
	if err != nil {
		return nil, toConnectError("CancelSplit", err)
	}
	return connect.NewResponse(&api.SplitResponse{Data: toAPISplit(cancelled)}), nil
}
