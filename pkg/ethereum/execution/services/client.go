package services

import "strings"

// ClientType identifies the execution client implementation behind the RPC
// endpoint, derived from its web3_clientVersion string.
type ClientType string

const (
	ClientTypeGeth       ClientType = "geth"
	ClientTypeErigon     ClientType = "erigon"
	ClientTypeNethermind ClientType = "nethermind"
	ClientTypeBesu       ClientType = "besu"
	ClientTypeReth       ClientType = "reth"
	ClientTypeUnknown    ClientType = "unknown"
)

func ClientFromString(version string) ClientType {
	lower := strings.ToLower(version)

	switch {
	case strings.Contains(lower, "geth"):
		return ClientTypeGeth
	case strings.Contains(lower, "erigon"):
		return ClientTypeErigon
	case strings.Contains(lower, "nethermind"):
		return ClientTypeNethermind
	case strings.Contains(lower, "besu"):
		return ClientTypeBesu
	case strings.Contains(lower, "reth"):
		return ClientTypeReth
	default:
		return ClientTypeUnknown
	}
}
