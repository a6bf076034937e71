package host

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
)

// Request describes one witness-generation run of the native host.
// Empty optional strings are omitted from the argument list.
type Request struct {
	L1Head        common.Hash
	L2Head        common.Hash
	L2OutputRoot  common.Hash
	L2Claim       common.Hash
	L2BlockNumber uint64
	L2ChainID     uint64

	L2NodeAddress   string
	L1NodeAddress   string
	L1BeaconAddress string
	DataDir         string
	Exec            string
	Server          bool
}

// Args returns the command-line arguments for the request. Mandatory fields
// come first in a fixed order as --flag=value, then present optional fields
// as separate flag and value tokens, then a bare --server.
func (r Request) Args() []string {
	args := []string{
		"--l1-head=" + r.L1Head.Hex(),
		"--l2-head=" + r.L2Head.Hex(),
		"--l2-output-root=" + r.L2OutputRoot.Hex(),
		"--l2-claim=" + r.L2Claim.Hex(),
		"--l2-block-number=" + strconv.FormatUint(r.L2BlockNumber, 10),
		"--l2-chain-id=" + strconv.FormatUint(r.L2ChainID, 10),
	}

	optional := []struct {
		flag  string
		value string
	}{
		{"--l2-node-address", r.L2NodeAddress},
		{"--l1-node-address", r.L1NodeAddress},
		{"--l1-beacon-address", r.L1BeaconAddress},
		{"--data-dir", r.DataDir},
		{"--exec", r.Exec},
	}
	for _, o := range optional {
		if o.value != "" {
			args = append(args, o.flag, o.value)
		}
	}

	if r.Server {
		args = append(args, "--server")
	}
	return args
}
