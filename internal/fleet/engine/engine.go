// Package engine drives the peer lifecycle: provisioning, revocation,
// device binding and node health. It is the only place that mutates the
// ledger and the devices together, and it owns the ordering that keeps
// both sides consistent.
package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/device"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/events"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/ipam"
	"github.com/bryanfrank99/mk-api-wire/internal/fleet/selector"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
	"github.com/bryanfrank99/mk-api-wire/pkg/crypto"
)

// Config holds engine tunables.
type Config struct {
	DefaultRegion string
	DNS           []string
}

// ControllerFactory yields the control-plane client for a node.
// Satisfied by device.Factory.
type ControllerFactory interface {
	ControllerFor(node db.Node) device.Controller
}

// Engine coordinates the ledger, the node selector and the device
// control plane for every peer lifecycle operation.
type Engine struct {
	store    db.Store
	selector *selector.Selector
	devices  ControllerFactory
	pool     *device.Pool
	bus      *events.FleetEventBus
	logger   *logger.Logger
	cfg      Config

	users *userLocks
	// allocMu serializes fleet-wide address allocation. The used set is
	// read outside the insert transaction, so two concurrent first-time
	// provisions could otherwise pick the same address. pendingIPs holds
	// addresses handed out but not yet committed by a placement
	// transaction, so they count as used until the placement settles.
	allocMu    sync.Mutex
	pendingIPs map[string]bool
}

func New(store db.Store, sel *selector.Selector, devices ControllerFactory, pool *device.Pool, bus *events.FleetEventBus, log *logger.Logger, cfg Config) *Engine {
	if cfg.DefaultRegion == "" {
		cfg.DefaultRegion = "US"
	}
	return &Engine{
		store:      store,
		selector:   sel,
		devices:    devices,
		pool:       pool,
		bus:        bus,
		logger:     log.WithComponent("engine"),
		cfg:        cfg,
		users:      newUserLocks(),
		pendingIPs: make(map[string]bool),
	}
}

// ProvisionRequest asks for a tunnel for one user from one device.
type ProvisionRequest struct {
	UserID     string
	PublicKey  string
	DeviceID   string
	RegionCode string // optional, falls back to the user's preference
}

// ProvisionResult reports where the peer landed and the client config.
type ProvisionResult struct {
	Node       db.Node
	Peer       db.Peer
	RegionCode string
	Reconnect  bool
	Config     TunnelConfig
}

// Provision places the user's single active peer on the best node of the
// requested region. Repeating the call with the same key and node is a
// no-op reconnect; a changed key is synced to the device in place. Any
// active peers elsewhere in the fleet are revoked first.
func (e *Engine) Provision(ctx context.Context, req ProvisionRequest) (*ProvisionResult, error) {
	op := e.logger.StartOp(ctx, "provision", "user_id", req.UserID)

	if !crypto.IsValidWireGuardKey(req.PublicKey) {
		err := errors.NewPeerError(errors.ErrCodeInvalidPublicKey, "public key is not a valid WireGuard key", false, nil)
		op.Fail(err)
		return nil, err
	}
	if req.DeviceID == "" {
		err := errors.NewUserError(errors.ErrCodeDeviceRequired, "device fingerprint is required", false, nil)
		op.Fail(err)
		return nil, err
	}

	unlock := e.users.Lock(req.UserID)
	defer unlock()

	user, err := e.store.GetUser(ctx, req.UserID)
	if err != nil {
		if db.IsNotFound(err) {
			op.Fail(errors.ErrUserNotFound)
			return nil, errors.ErrUserNotFound
		}
		op.Fail(err)
		return nil, err
	}
	if !user.IsActive {
		err := errors.NewUserError(errors.ErrCodeAccountDisabled, "account is disabled", false, nil)
		op.Fail(err)
		return nil, err
	}

	if err := e.bindDevice(ctx, &user, req.DeviceID); err != nil {
		op.Fail(err)
		return nil, err
	}

	regionCode, err := e.resolveRegion(ctx, user, req.RegionCode)
	if err != nil {
		op.Fail(err)
		return nil, err
	}
	op.Progress("region resolved", "region", regionCode)

	node, err := e.selector.Select(ctx, regionCode)
	if err != nil {
		op.Fail(err)
		return nil, err
	}

	// Reconnect path: an active peer on the chosen node is reused, with
	// the public key synced to the device if the client rotated it.
	existing, err := e.store.GetActivePeerForUserNode(ctx, db.GetActivePeerForUserNodeParams{
		UserID: user.ID,
		NodeID: node.ID,
	})
	if err == nil {
		result, err := e.reconnect(ctx, user, node, existing, req.PublicKey, regionCode)
		if err != nil {
			op.Fail(err)
			return nil, err
		}
		op.Complete("reconnect served", "node_id", node.ID)
		return result, nil
	}
	if !db.IsNotFound(err) {
		op.Fail(err)
		return nil, err
	}

	// One active peer fleet-wide: sweep the others before placing a new
	// one. Device removals inside are best effort.
	if _, err := e.revokeAllLocked(ctx, user); err != nil {
		op.Fail(err)
		return nil, err
	}

	assignedIP, release, err := e.resolveAddress(ctx, user)
	if err != nil {
		op.Fail(err)
		return nil, err
	}
	defer release()
	op.Progress("address resolved", "assigned_ip", assignedIP)

	result, err := e.placePeer(ctx, user, node, req.PublicKey, assignedIP, regionCode)
	if err != nil {
		// A device failure is terminal for this request; the caller may
		// retry. An unreachable node is additionally flagged so the
		// selector stops routing into it before the next sweep.
		if device.Classify(err) == device.CallFatal {
			e.flagNodeUnreachable(ctx, node)
		}
		op.Fail(err)
		return nil, err
	}

	op.Complete("peer provisioned", "node_id", node.ID, "assigned_ip", assignedIP)
	return result, nil
}

// flagNodeUnreachable marks a node DOWN after a fatal control-plane
// failure. The sweeper flips it back once the device answers again.
func (e *Engine) flagNodeUnreachable(ctx context.Context, node db.Node) {
	if node.Status != db.NodeStatusUp {
		return
	}
	if err := e.store.UpdateNodeStatus(ctx, db.UpdateNodeStatusParams{
		ID:     node.ID,
		Status: db.NodeStatusDown,
	}); err != nil {
		e.logger.Error("failed to flag unreachable node", "node_id", node.ID, "error", err)
		return
	}
	e.logger.Warn("node flagged unreachable", "node_id", node.ID)
	_ = e.bus.PublishNodeStatusChanged(node.ID, node.Status, db.NodeStatusDown)
}

// bindDevice enforces the one-device rule. The first fingerprint seen
// for an account is bound to it; afterwards only that device may
// provision until an operator clears the lock.
func (e *Engine) bindDevice(ctx context.Context, user *db.User, deviceID string) error {
	if user.DeviceID.Valid {
		if user.DeviceID.String != deviceID {
			return errors.ErrDeviceLocked
		}
		return nil
	}

	other, err := e.store.GetUserByDeviceID(ctx, deviceID)
	if err == nil && other.ID != user.ID {
		return errors.ErrDeviceInUse
	}
	if err != nil && !db.IsNotFound(err) {
		return err
	}

	if err := e.store.SetUserDeviceID(ctx, db.SetUserDeviceIDParams{ID: user.ID, DeviceID: deviceID}); err != nil {
		// Unique constraint race with another account binding the same
		// fingerprint concurrently.
		return errors.ErrDeviceInUse
	}
	user.DeviceID = db.NullString(deviceID)

	_ = e.bus.PublishDeviceBound(user.ID, deviceID)
	return nil
}

func (e *Engine) resolveRegion(ctx context.Context, user db.User, requested string) (string, error) {
	if requested != "" {
		return requested, nil
	}
	if user.PreferredRegionID.Valid {
		region, err := e.store.GetRegion(ctx, user.PreferredRegionID.String)
		if err != nil {
			if db.IsNotFound(err) {
				return e.cfg.DefaultRegion, nil
			}
			return "", err
		}
		return region.Code, nil
	}
	return e.cfg.DefaultRegion, nil
}

// resolveAddress returns the user's stable address, reserving a fresh
// one on first connect. The reservation lives in memory only: the
// address is persisted by the placement transaction after the device
// accepted the peer, and the returned release frees the reservation so
// a failed placement never burns an address or leaves one on the user.
func (e *Engine) resolveAddress(ctx context.Context, user db.User) (string, func(), error) {
	noop := func() {}
	if user.AssignedIp.Valid {
		return user.AssignedIp.String, noop, nil
	}

	e.allocMu.Lock()
	defer e.allocMu.Unlock()

	used, err := e.store.ListAssignedIPs(ctx)
	if err != nil {
		return "", noop, err
	}
	usedSet := make(map[string]bool, len(used)+len(e.pendingIPs))
	for _, ip := range used {
		usedSet[ip] = true
	}
	for ip := range e.pendingIPs {
		usedSet[ip] = true
	}

	// Allocation walks the shared fleet range so a user's address never
	// collides regardless of which node pool it was born in.
	nodes, err := e.store.ListNodes(ctx)
	if err != nil {
		return "", noop, err
	}

	var lastErr error = errors.ErrPoolExhausted
	for _, node := range nodes {
		ip, err := ipam.Allocate(node.PoolCidr, usedSet)
		if err != nil {
			lastErr = err
			continue
		}

		addr := ip.String()
		e.pendingIPs[addr] = true
		release := func() {
			e.allocMu.Lock()
			delete(e.pendingIPs, addr)
			e.allocMu.Unlock()
		}
		return addr, release, nil
	}

	return "", noop, lastErr
}

// reconnect serves an idempotent repeat provision on the same node.
func (e *Engine) reconnect(ctx context.Context, user db.User, node db.Node, peer db.Peer, publicKey, regionCode string) (*ProvisionResult, error) {
	if peer.ClientPublicKey != publicKey {
		ctrl := e.devices.ControllerFor(node)
		spec := device.PeerSpec{
			PublicKey: publicKey,
			AllowedIP: peer.AssignedIp,
			Comment:   fmt.Sprintf("User: %s (Key Sync)", user.Username),
			Interface: node.InterfaceName,
		}
		err := e.pool.Call(ctx, node.ID, "add_peer", func(ctx context.Context) error {
			return ctrl.AddPeer(ctx, spec)
		})
		if err != nil {
			return nil, errors.NewDeviceSyncError(node.ID, user.ID, err)
		}

		if err := e.store.UpdatePeerPublicKey(ctx, db.UpdatePeerPublicKeyParams{
			ID:              peer.ID,
			ClientPublicKey: publicKey,
		}); err != nil {
			return nil, err
		}
		peer.ClientPublicKey = publicKey

		_ = e.bus.PublishPeerKeySynced(user.ID, node.ID, peer.ID)
	}

	_ = e.bus.PublishPeerProvisioned(user.ID, node.ID, peer.ID, regionCode, peer.AssignedIp, true)

	return &ProvisionResult{
		Node:       node,
		Peer:       peer,
		RegionCode: regionCode,
		Reconnect:  true,
		Config:     NewTunnelConfig(node, peer.AssignedIp, e.cfg.DNS),
	}, nil
}

// placePeer pushes the peer to the device and commits the ledger row,
// the capacity counter and, on a first connect, the user's address in
// one transaction. A commit failure rolls the device entry back so
// neither side holds a peer the other lacks.
func (e *Engine) placePeer(ctx context.Context, user db.User, node db.Node, publicKey, assignedIP, regionCode string) (*ProvisionResult, error) {
	ctrl := e.devices.ControllerFor(node)
	spec := device.PeerSpec{
		PublicKey: publicKey,
		AllowedIP: assignedIP,
		Comment:   fmt.Sprintf("User: %s | %s", user.Username, user.ID),
		Interface: node.InterfaceName,
	}

	if err := e.pool.Call(ctx, node.ID, "add_peer", func(ctx context.Context) error {
		return ctrl.AddPeer(ctx, spec)
	}); err != nil {
		return nil, err
	}

	var peer db.Peer
	txErr := e.store.ExecTx(ctx, func(q *db.Queries) error {
		n, err := q.IncrementNodePeers(ctx, node.ID)
		if err != nil {
			return err
		}
		if n == 0 {
			// Node filled up between selection and commit
			return errors.ErrNoAvailableNode
		}

		if !user.AssignedIp.Valid {
			if err := q.SetUserAssignedIP(ctx, db.SetUserAssignedIPParams{
				ID:         user.ID,
				AssignedIp: assignedIP,
			}); err != nil {
				return err
			}
		}

		peer, err = q.CreatePeer(ctx, db.CreatePeerParams{
			ID:              uuid.New().String(),
			UserID:          user.ID,
			NodeID:          node.ID,
			ClientPublicKey: publicKey,
			AssignedIp:      assignedIP,
			Status:          db.PeerStatusActive,
		})
		return err
	})
	if txErr != nil {
		e.rollbackDevicePeer(ctx, ctrl, node.ID, publicKey)
		return nil, txErr
	}

	_ = e.bus.PublishPeerProvisioned(user.ID, node.ID, peer.ID, regionCode, assignedIP, false)

	return &ProvisionResult{
		Node:       node,
		Peer:       peer,
		RegionCode: regionCode,
		Config:     NewTunnelConfig(node, assignedIP, e.cfg.DNS),
	}, nil
}

func (e *Engine) rollbackDevicePeer(ctx context.Context, ctrl device.Controller, nodeID, publicKey string) {
	err := e.pool.Call(ctx, nodeID, "remove_peer", func(ctx context.Context) error {
		_, err := ctrl.RemovePeer(ctx, publicKey)
		return err
	})
	if err != nil {
		e.logger.Error("failed to roll back device peer after commit failure",
			"node_id", nodeID, "error", err)
	}
}

// RevokeAll revokes every active peer of the user across the fleet and
// returns how many were revoked. Device removals are best effort; the
// ledger is always updated so the invariant holds even with a dead node.
func (e *Engine) RevokeAll(ctx context.Context, userID string) (int, error) {
	op := e.logger.StartOp(ctx, "revoke_all", "user_id", userID)

	unlock := e.users.Lock(userID)
	defer unlock()

	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		if db.IsNotFound(err) {
			op.Fail(errors.ErrUserNotFound)
			return 0, errors.ErrUserNotFound
		}
		op.Fail(err)
		return 0, err
	}

	count, err := e.revokeAllLocked(ctx, user)
	if err != nil {
		op.Fail(err)
		return count, err
	}

	op.Complete("peers revoked", "count", count)
	return count, nil
}

// revokeAllLocked does the sweep. Caller holds the user lock.
func (e *Engine) revokeAllLocked(ctx context.Context, user db.User) (int, error) {
	peers, err := e.store.ListActivePeersByUser(ctx, user.ID)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, peer := range peers {
		node, err := e.store.GetNode(ctx, peer.NodeID)
		if err != nil {
			return revoked, err
		}

		deviceSynced := true
		ctrl := e.devices.ControllerFor(node)
		err = e.pool.Call(ctx, node.ID, "remove_peer", func(ctx context.Context) error {
			_, err := ctrl.RemovePeer(ctx, peer.ClientPublicKey)
			return err
		})
		if err != nil {
			// The ledger side still proceeds; the device catches up on
			// the next sweep or operator intervention.
			deviceSynced = false
			e.logger.Warn("device peer removal failed during revocation",
				"node_id", node.ID, "user_id", user.ID, "error", err)
		}

		txErr := e.store.ExecTx(ctx, func(q *db.Queries) error {
			if err := q.UpdatePeerStatus(ctx, db.UpdatePeerStatusParams{
				ID:     peer.ID,
				Status: db.PeerStatusRevoked,
			}); err != nil {
				return err
			}
			n, err := q.DecrementNodePeers(ctx, node.ID)
			if err != nil {
				return err
			}
			if n == 0 {
				// Counter drift: an active peer existed on a node whose
				// counter already read zero. The revocation still lands,
				// the drift is surfaced for operators.
				e.logger.Error("peer counter drift detected",
					"error", errors.NewInvariantViolation("node_peer_counter",
						fmt.Sprintf("node %s counter was zero while revoking active peer %s", node.ID, peer.ID)))
			}
			return nil
		})
		if txErr != nil {
			return revoked, txErr
		}

		revoked++
		_ = e.bus.PublishPeerRevoked(user.ID, node.ID, peer.ID, deviceSynced)
	}

	return revoked, nil
}

// SetPreferredRegion stores the user's default region for provisions
// that do not name one.
func (e *Engine) SetPreferredRegion(ctx context.Context, userID, regionCode string) error {
	region, err := e.store.GetRegionByCode(ctx, regionCode)
	if err != nil {
		if db.IsNotFound(err) {
			return errors.ErrRegionNotFound
		}
		return err
	}

	if _, err := e.store.GetUser(ctx, userID); err != nil {
		if db.IsNotFound(err) {
			return errors.ErrUserNotFound
		}
		return err
	}

	return e.store.SetUserPreferredRegion(ctx, db.SetUserPreferredRegionParams{
		ID:                userID,
		PreferredRegionID: db.NullString(region.ID),
	})
}

// ResetDeviceLock clears the device binding so the user can enroll a new
// device. Operator-only.
func (e *Engine) ResetDeviceLock(ctx context.Context, userID string) error {
	unlock := e.users.Lock(userID)
	defer unlock()

	if _, err := e.store.GetUser(ctx, userID); err != nil {
		if db.IsNotFound(err) {
			return errors.ErrUserNotFound
		}
		return err
	}
	return e.store.ClearUserDeviceID(ctx, userID)
}

// CheckNode probes a node's management plane and records status
// transitions in the ledger.
func (e *Engine) CheckNode(ctx context.Context, nodeID string) (bool, error) {
	node, err := e.store.GetNode(ctx, nodeID)
	if err != nil {
		if db.IsNotFound(err) {
			return false, errors.ErrNodeNotFound
		}
		return false, err
	}

	// Maintenance is an operator decision, the sweep leaves it alone.
	if node.Status == db.NodeStatusMaintenance {
		return false, nil
	}

	ctrl := e.devices.ControllerFor(node)
	healthy := false
	_ = e.pool.Call(ctx, node.ID, "health_check", func(ctx context.Context) error {
		healthy = ctrl.Health(ctx)
		return nil
	})

	newStatus := db.NodeStatusDown
	if healthy {
		newStatus = db.NodeStatusUp
	}
	if newStatus != node.Status {
		if err := e.store.UpdateNodeStatus(ctx, db.UpdateNodeStatusParams{
			ID:     node.ID,
			Status: newStatus,
		}); err != nil {
			return healthy, err
		}
		_ = e.bus.PublishNodeStatusChanged(node.ID, node.Status, newStatus)
	}

	return healthy, nil
}

// SweepNodes health-checks the whole fleet.
func (e *Engine) SweepNodes(ctx context.Context) error {
	nodes, err := e.store.ListNodes(ctx)
	if err != nil {
		return err
	}

	for _, node := range nodes {
		if _, err := e.CheckNode(ctx, node.ID); err != nil {
			e.logger.Warn("node health check failed", "node_id", node.ID, "error", err)
		}
	}
	return nil
}
