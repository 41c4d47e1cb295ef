package device

import (
	"context"
	"time"

	"github.com/go-routeros/routeros/v3"

	"github.com/bryanfrank99/mk-api-wire/internal/fleet/db"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/errors"
	"github.com/bryanfrank99/mk-api-wire/internal/shared/logger"
)

const dialTimeout = 5 * time.Second

// routerOS drives a MikroTik device over the RouterOS binary API.
// Connections are per call: the fleet is wide and calls are rare, so
// holding a session per node would only leak on router reboots.
type routerOS struct {
	node   db.Node
	logger *logger.Logger
}

func newRouterOS(node db.Node, log *logger.Logger) *routerOS {
	return &routerOS{
		node:   node,
		logger: log.WithNodeID(node.ID),
	}
}

func (r *routerOS) connect() (*routeros.Client, error) {
	client, err := routeros.DialTimeout(apiAddress(r.node), r.node.ApiUser, r.node.ApiPassword, dialTimeout)
	if err != nil {
		return nil, errors.NewDeviceError(r.node.ID, "dial", "connect to router API", err)
	}
	return client, nil
}

// AddPeer creates the WireGuard peer entry on the router.
func (r *routerOS) AddPeer(ctx context.Context, spec PeerSpec) error {
	client, err := r.connect()
	if err != nil {
		return err
	}
	defer client.Close()

	_, err = client.RunContext(ctx,
		"/interface/wireguard/peers/add",
		"=interface="+spec.Interface,
		"=public-key="+spec.PublicKey,
		"=allowed-address="+spec.AllowedIP,
		"=comment="+spec.Comment,
	)
	if err != nil {
		return errors.NewDeviceError(r.node.ID, "add_peer", "create peer entry", err)
	}

	r.logger.Debug("peer added on device", "public_key", spec.PublicKey, "allowed_ip", spec.AllowedIP)
	return nil
}

// RemovePeer deletes the peer entry matching publicKey. The router keys
// peer rows by an internal .id, so removal is a lookup followed by a
// remove for every match.
func (r *routerOS) RemovePeer(ctx context.Context, publicKey string) (bool, error) {
	client, err := r.connect()
	if err != nil {
		return false, err
	}
	defer client.Close()

	reply, err := client.RunContext(ctx,
		"/interface/wireguard/peers/print",
		"?public-key="+publicKey,
	)
	if err != nil {
		return false, errors.NewDeviceError(r.node.ID, "remove_peer", "look up peer entry", err)
	}
	if len(reply.Re) == 0 {
		return false, nil
	}

	for _, re := range reply.Re {
		id, ok := re.Map[".id"]
		if !ok {
			continue
		}
		if _, err := client.RunContext(ctx, "/interface/wireguard/peers/remove", "=.id="+id); err != nil {
			return false, errors.NewDeviceError(r.node.ID, "remove_peer", "remove peer entry", err)
		}
	}

	r.logger.Debug("peer removed from device", "public_key", publicKey, "entries", len(reply.Re))
	return true, nil
}

// Health checks the device is reachable and answering API commands.
func (r *routerOS) Health(ctx context.Context) bool {
	client, err := r.connect()
	if err != nil {
		r.logger.Warn("health check failed to connect", "error", err)
		return false
	}
	defer client.Close()

	if _, err := client.RunContext(ctx, "/system/resource/print"); err != nil {
		r.logger.Warn("health check command failed", "error", err)
		return false
	}
	return true
}
