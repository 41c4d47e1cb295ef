package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/engine"
	apperrors "github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	"github.com/bryanfrank99/mk-api-wire/pkg/api"
)

func parseJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func (s *Server) badRequest(w http.ResponseWriter, message string) {
	_ = WriteJSON(w, http.StatusBadRequest, api.Response[any]{
		Success: false,
		Error:   &api.ErrorInfo{Code: "validation_error", Message: message},
	})
}

func (s *Server) healthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Ping(r.Context()); err != nil {
			s.writeError(w, r, err)
			return
		}
		_ = WriteSuccess(w, api.HealthResponse{Status: "healthy", Version: "1.0.0"})
	}
}

func (s *Server) provisionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ProvisionRequest
		if err := parseJSON(r, &req); err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if req.UserID == "" {
			s.badRequest(w, "user_id is required")
			return
		}

		result, err := s.provisioner.Provision(r.Context(), engine.ProvisionRequest{
			UserID:     req.UserID,
			PublicKey:  req.PublicKey,
			DeviceID:   req.DeviceID,
			RegionCode: req.Region,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		_ = WriteSuccess(w, api.ProvisionResponse{
			Config:     result.Config.Render(),
			Region:     result.RegionCode,
			Node:       result.Node.Name,
			AssignedIP: result.Peer.AssignedIp,
			Reconnect:  result.Reconnect,
		})
	}
}

func (s *Server) deactivateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.DeactivateRequest
		if err := parseJSON(r, &req); err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if req.UserID == "" {
			s.badRequest(w, "user_id is required")
			return
		}

		revoked, err := s.provisioner.RevokeAll(r.Context(), req.UserID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		_ = WriteSuccess(w, api.DeactivateResponse{Revoked: revoked})
	}
}

// listRegionsHandler returns only regions with at least one selectable
// node, so clients never offer a region that cannot serve.
func (s *Server) listRegionsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		regions, err := s.store.ListAvailableRegions(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		out := make([]api.RegionInfo, 0, len(regions))
		for _, region := range regions {
			out = append(out, api.RegionInfo{Code: region.Code, Name: region.Name})
		}
		_ = WriteSuccess(w, out)
	}
}

func (s *Server) createUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateUserRequest
		if err := parseJSON(r, &req); err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if req.Username == "" {
			s.badRequest(w, "username is required")
			return
		}

		user, err := s.store.CreateUser(r.Context(), db.CreateUserParams{
			ID:       uuid.New().String(),
			Username: req.Username,
			IsActive: true,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		_ = WriteCreated(w, toUserInfo(user))
	}
}

func (s *Server) setPreferredRegionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.PreferredRegionRequest
		if err := parseJSON(r, &req); err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if req.Region == "" {
			s.badRequest(w, "region is required")
			return
		}

		if err := s.provisioner.SetPreferredRegion(r.Context(), r.PathValue("userID"), req.Region); err != nil {
			s.writeError(w, r, err)
			return
		}
		_ = WriteSuccess(w, struct{}{})
	}
}

func (s *Server) resetDeviceHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.provisioner.ResetDeviceLock(r.Context(), r.PathValue("userID")); err != nil {
			s.writeError(w, r, err)
			return
		}
		_ = WriteSuccess(w, struct{}{})
	}
}

func (s *Server) listAuditHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logs, err := s.store.ListAuditLogsByUser(r.Context(), r.PathValue("userID"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		out := make([]api.AuditEntry, 0, len(logs))
		for _, l := range logs {
			out = append(out, api.AuditEntry{
				Action:    l.Action,
				Details:   l.Details,
				CreatedAt: l.CreatedAt,
			})
		}
		_ = WriteSuccess(w, out)
	}
}

func (s *Server) createRegionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateRegionRequest
		if err := parseJSON(r, &req); err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if req.Code == "" || req.Name == "" {
			s.badRequest(w, "code and name are required")
			return
		}

		region, err := s.store.CreateRegion(r.Context(), db.CreateRegionParams{
			ID:       uuid.New().String(),
			Code:     req.Code,
			Name:     req.Name,
			IsActive: true,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		_ = WriteCreated(w, api.RegionInfo{Code: region.Code, Name: region.Name})
	}
}

func (s *Server) createNodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateNodeRequest
		if err := parseJSON(r, &req); err != nil {
			s.badRequest(w, err.Error())
			return
		}
		if req.RegionCode == "" || req.Name == "" || req.PoolCIDR == "" || req.ServerPublicKey == "" {
			s.badRequest(w, "region_code, name, pool_cidr and server_public_key are required")
			return
		}

		region, err := s.store.GetRegionByCode(r.Context(), req.RegionCode)
		if err != nil {
			if db.IsNotFound(err) {
				err = fmt.Errorf("region %q: %w", req.RegionCode, apperrors.ErrRegionNotFound)
			}
			s.writeError(w, r, err)
			return
		}

		if req.EndpointPort == 0 {
			req.EndpointPort = 51820
		}
		if req.InterfaceName == "" {
			req.InterfaceName = "wg-vpn"
		}
		if req.AllowedIPs == "" {
			req.AllowedIPs = "0.0.0.0/0, ::/0"
		}
		if req.APIPort == 0 {
			req.APIPort = 8728
		}
		if req.MaxCapacity == 0 {
			req.MaxCapacity = 100
		}
		if req.Priority == 0 {
			req.Priority = 1
		}

		node, err := s.store.CreateNode(r.Context(), db.CreateNodeParams{
			ID:              uuid.New().String(),
			RegionID:        region.ID,
			Name:            req.Name,
			EndpointHost:    req.EndpointHost,
			EndpointPort:    req.EndpointPort,
			ServerPublicKey: req.ServerPublicKey,
			InterfaceName:   req.InterfaceName,
			PoolCidr:        req.PoolCIDR,
			AllowedIps:      req.AllowedIPs,
			MaxCapacity:     req.MaxCapacity,
			ApiHost:         req.APIHost,
			ApiPort:         req.APIPort,
			ApiUser:         req.APIUser,
			ApiPassword:     req.APIPassword,
			IsSimulated:     req.IsSimulated,
			Status:          db.NodeStatusUp,
			Priority:        req.Priority,
		})
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		_ = WriteCreated(w, toNodeInfo(node))
	}
}

func (s *Server) listNodesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodes, err := s.store.ListNodes(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		out := make([]api.NodeInfo, 0, len(nodes))
		for _, node := range nodes {
			out = append(out, toNodeInfo(node))
		}
		_ = WriteSuccess(w, out)
	}
}

func (s *Server) checkNodeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		nodeID := r.PathValue("nodeID")
		healthy, err := s.provisioner.CheckNode(r.Context(), nodeID)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		_ = WriteSuccess(w, api.NodeHealthResponse{NodeID: nodeID, Healthy: healthy})
	}
}

func toUserInfo(user db.User) api.UserInfo {
	return api.UserInfo{
		ID:         user.ID,
		Username:   user.Username,
		DeviceID:   user.DeviceID.String,
		AssignedIP: user.AssignedIp.String,
		IsActive:   user.IsActive,
	}
}

func toNodeInfo(node db.Node) api.NodeInfo {
	return api.NodeInfo{
		ID:           node.ID,
		Name:         node.Name,
		Region:       node.RegionID,
		Status:       node.Status,
		CurrentPeers: node.CurrentPeers,
		MaxCapacity:  node.MaxCapacity,
		IsSimulated:  node.IsSimulated,
	}
}
