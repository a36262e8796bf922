package node

import (
	"net"
	"os"
	"sync"

	"github.com/google/uuid"
)

// Node identifies this server instance: several rigs can share one MQTT
// broker, so anything published or reported carries the node identity.
type Node struct {
	ID         string
	Hostname   string
	IPAddress  string
	Version    string
	CommitHash string
}

var Version = "development"
var CommitHash = "unknown"

var (
	nodeID     string
	nodeIDOnce sync.Once
	nodeIP     string
	nodeIPOnce sync.Once
)

// ShortID returns the compact form of the node ID used in MQTT client IDs
// and log attributes.
func (n *Node) ShortID() string {
	if len(n.ID) < 8 {
		return n.ID
	}
	return n.ID[:8]
}

// GetNodeInfo returns the current node information
func GetNodeInfo() *Node {
	return &Node{
		ID:         getNodeID(),
		Hostname:   getHostname(),
		IPAddress:  getNodeIPAddress(),
		Version:    Version,
		CommitHash: CommitHash,
	}
}

// getNodeID returns the current node ID, generated once per process
func getNodeID() string {
	nodeIDOnce.Do(func() {
		nodeID = uuid.New().String()
	})
	return nodeID
}

func getHostname() string {
	hostname, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return hostname
}

// getNodeIPAddress returns the current node IP address
func getNodeIPAddress() string {
	nodeIPOnce.Do(func() {
		nodeIP = getNodeIPAddressInternal()
	})
	return nodeIP
}

func getNodeIPAddressInternal() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "127.0.0.1"
	}
	defer conn.Close()

	localAddr := conn.LocalAddr().(*net.UDPAddr)
	return localAddr.IP.String()
}
