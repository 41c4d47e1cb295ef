package api

// ProvisionRequest asks for a tunnel for a user from a device.
type ProvisionRequest struct {
	UserID    string `json:"user_id"`
	PublicKey string `json:"public_key"`
	DeviceID  string `json:"device_id"`
	Region    string `json:"region,omitempty"`
}

// DeactivateRequest revokes all active peers of a user.
type DeactivateRequest struct {
	UserID string `json:"user_id"`
}

// PreferredRegionRequest sets the user's default region.
type PreferredRegionRequest struct {
	Region string `json:"region"`
}

// CreateUserRequest enrolls a new account.
type CreateUserRequest struct {
	Username string `json:"username"`
}

// CreateRegionRequest adds a region to the catalog.
type CreateRegionRequest struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CreateNodeRequest registers an edge node in a region.
type CreateNodeRequest struct {
	RegionCode      string `json:"region_code"`
	Name            string `json:"name"`
	EndpointHost    string `json:"endpoint_host"`
	EndpointPort    int64  `json:"endpoint_port"`
	ServerPublicKey string `json:"server_public_key"`
	InterfaceName   string `json:"interface_name"`
	PoolCIDR        string `json:"pool_cidr"`
	AllowedIPs      string `json:"allowed_ips"`
	MaxCapacity     int64  `json:"max_capacity"`
	APIHost         string `json:"api_host"`
	APIPort         int64  `json:"api_port"`
	APIUser         string `json:"api_user"`
	APIPassword     string `json:"api_password"`
	IsSimulated     bool   `json:"is_simulated"`
	Priority        int64  `json:"priority"`
}
