package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	pkgerrors "github.com/pkg/errors"

	"github.com/betkit/polytrade/clob/types"
	"github.com/betkit/polytrade/internal/metrics"
	"github.com/betkit/polytrade/pkg/logger"
	"github.com/betkit/polytrade/pkg/ratelimit"
)

// OrderSubmitter serializes signed orders into the exchange's wire
// format, authenticates each request and interprets the response. It
// never re-rounds or re-signs anything: the body it sends is a direct
// reshaping of the signed snapshot.
type OrderSubmitter struct {
	http        *httpClient
	auth        *SessionAuthenticator
	limits      *ratelimit.Manager
	statusDelay time.Duration
}

func NewOrderSubmitter(httpc *httpClient, auth *SessionAuthenticator, limits *ratelimit.Manager, statusDelay time.Duration) *OrderSubmitter {
	if statusDelay <= 0 {
		statusDelay = 3 * time.Second
	}
	return &OrderSubmitter{http: httpc, auth: auth, limits: limits, statusDelay: statusDelay}
}

// Submit posts a signed order. The HMAC covers the exact serialized
// body; an auth rejection triggers exactly one re-authentication and
// resubmission, any other structured error is surfaced verbatim. On
// success one delayed status poll runs, and its failure only logs.
func (s *OrderSubmitter) Submit(ctx context.Context, session *Session, signed *types.SignedOrder, orderType types.OrderType, progress *Progress) (*types.OrderResponse, error) {
	if orderType == "" {
		orderType = types.OrderTypeGTC
	}

	attempt := func() (*types.OrderResponse, error) {
		creds, err := s.auth.Authenticate(ctx, session)
		if err != nil {
			return nil, err
		}
		payload := types.NewOrder{
			Order:     signed.Payload(),
			Owner:     creds.Key,
			OrderType: orderType,
		}
		bodyBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "serialize order")
		}
		body := string(bodyBytes)
		headers, err := s.auth.RequestHeaders(ctx, session, &types.L2HeaderArgs{
			Method:      http.MethodPost,
			RequestPath: EndpointPostOrder,
			Body:        &body,
		})
		if err != nil {
			return nil, err
		}
		if err := s.limits.Wait(ctx, ratelimit.KeyOrderPost); err != nil {
			return nil, err
		}
		var resp types.OrderResponse
		if err := s.http.post(ctx, EndpointPostOrder, headers, body, &resp); err != nil {
			return nil, err
		}
		return &resp, nil
	}

	progress.Emitf(StageSubmit, "submitting %s order", orderType)
	resp, err := attempt()
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || !apiErr.IsAuthError() {
			return nil, countRejection(err)
		}
		logger.Warnf("submission rejected for auth (%s), re-authenticating once", apiErr.Code)
		if _, rerr := s.auth.Reauthenticate(ctx, session); rerr != nil {
			return nil, rerr
		}
		resp, err = attempt()
		if err != nil {
			return nil, countRejection(err)
		}
	}

	if !resp.Success && resp.ErrorMsg != "" {
		metrics.OrdersRejected.Add(1)
		return nil, pkgerrors.Errorf("order rejected: %s", resp.ErrorMsg)
	}
	metrics.OrdersSubmitted.Add(1)
	logger.Infof("order accepted: id=%s status=%s", resp.OrderID, resp.Status)

	if resp.OrderID != "" {
		s.pollStatusOnce(ctx, session, resp, signed.Order.TokenID, progress)
	}
	return resp, nil
}

// countRejection tallies exchange rejections; transport failures and
// local errors are not rejections.
func countRejection(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		metrics.OrdersRejected.Add(1)
	}
	return err
}

// pollStatusOnce waits briefly and asks where the order landed. It is
// best-effort by contract: any failure is logged and the submission
// stays successful.
func (s *OrderSubmitter) pollStatusOnce(ctx context.Context, session *Session, resp *types.OrderResponse, tokenID string, progress *Progress) {
	select {
	case <-ctx.Done():
		return
	case <-time.After(s.statusDelay):
	}
	open, err := s.Status(ctx, session, resp.OrderID, tokenID)
	if err != nil {
		logger.Warnf("status poll failed for %s: %v", resp.OrderID, err)
		return
	}
	status, err := types.ClassifyStatus(open.OriginalSize, open.SizeMatched)
	if err != nil {
		logger.Warnf("status poll for %s returned odd sizes: %v", resp.OrderID, err)
		return
	}
	resp.Status = string(status)
	progress.Emitf(StageStatus, "order %s is %s", resp.OrderID, status)
}

// Status fetches one order by id, scoped to its token when known.
func (s *OrderSubmitter) Status(ctx context.Context, session *Session, orderID, tokenID string) (*types.OpenOrder, error) {
	endpoint := EndpointGetOrder + orderID
	headers, err := s.auth.RequestHeaders(ctx, session, &types.L2HeaderArgs{
		Method:      http.MethodGet,
		RequestPath: endpoint,
	})
	if err != nil {
		return nil, err
	}
	var params map[string]string
	if tokenID != "" {
		params = map[string]string{"asset_id": tokenID}
	}
	if err := s.limits.Wait(ctx, ratelimit.KeyOrderGet); err != nil {
		return nil, err
	}
	var order types.OpenOrder
	if err := s.http.get(ctx, endpoint, headers, params, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// OpenOrdersQuery narrows the open-orders listing.
type OpenOrdersQuery struct {
	ID         string
	Market     string
	AssetID    string
	NextCursor string
}

// OpenOrders lists resting orders for the session account, one page
// per call.
func (s *OrderSubmitter) OpenOrders(ctx context.Context, session *Session, query *OpenOrdersQuery) (*types.OpenOrdersResponse, error) {
	headers, err := s.auth.RequestHeaders(ctx, session, &types.L2HeaderArgs{
		Method:      http.MethodGet,
		RequestPath: EndpointGetOpenOrders,
	})
	if err != nil {
		return nil, err
	}
	params := make(map[string]string)
	if query != nil {
		if query.ID != "" {
			params["id"] = query.ID
		}
		if query.Market != "" {
			params["market"] = query.Market
		}
		if query.AssetID != "" {
			params["asset_id"] = query.AssetID
		}
		if query.NextCursor != "" {
			params["next_cursor"] = query.NextCursor
		}
	}
	if err := s.limits.Wait(ctx, ratelimit.KeyOrdersGet); err != nil {
		return nil, err
	}
	var resp types.OpenOrdersResponse
	if err := s.http.get(ctx, EndpointGetOpenOrders, headers, params, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Cancel withdraws one resting order.
func (s *OrderSubmitter) Cancel(ctx context.Context, session *Session, orderID string) (*types.CancelResponse, error) {
	bodyBytes, err := json.Marshal(map[string]string{"orderID": orderID})
	if err != nil {
		return nil, pkgerrors.Wrap(err, "serialize cancel")
	}
	body := string(bodyBytes)
	headers, err := s.auth.RequestHeaders(ctx, session, &types.L2HeaderArgs{
		Method:      http.MethodDelete,
		RequestPath: EndpointCancelOrder,
		Body:        &body,
	})
	if err != nil {
		return nil, err
	}
	if err := s.limits.Wait(ctx, ratelimit.KeyOrderCancel); err != nil {
		return nil, err
	}
	var resp types.CancelResponse
	if err := s.http.del(ctx, EndpointCancelOrder, headers, body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
