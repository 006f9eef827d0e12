package executor

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/dz0nda/quartz-tezos-contracts/micheline"
	"github.com/pkg/errors"
)

// ScriptDir loads compiled contracts from a directory holding one
// `<name>.json` file per contract.
type ScriptDir string

// Load returns the Michelson code of the contract name. The file holds
// either the code sequence itself or an object with a "code" field, as
// written by octez-client and the node script RPC.
func (d ScriptDir) Load(name string) (micheline.Prim, error) {
	return LoadScript(filepath.Join(string(d), name+".json"))
}

func LoadScript(path string) (micheline.Prim, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return micheline.InvalidPrim, errors.Wrap(err, "could not read contract")
	}
	var wrapped struct {
		Code *micheline.Prim `json:"code"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Code != nil {
		return *wrapped.Code, nil
	}
	code, err := micheline.ParseJSON(data)
	if err != nil {
		return micheline.InvalidPrim, errors.Wrapf(err, "invalid contract %s", path)
	}
	if !code.IsSeq() {
		return micheline.InvalidPrim, errors.Errorf("invalid contract %s: code is not a sequence", path)
	}
	return code, nil
}

// ScriptLoader resolves contract names to code.
type ScriptLoader interface {
	Load(name string) (micheline.Prim, error)
}
