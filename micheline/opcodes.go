package micheline

import (
	"fmt"
)

// OpCode is the numeric tag of a Michelson primitive as used by the binary
// encoding.
type OpCode byte

const (
	K_PARAMETER OpCode = iota        // 0x00
	K_STORAGE                        // 0x01
	K_CODE                           // 0x02
	D_FALSE                          // 0x03
	D_ELT                            // 0x04
	D_LEFT                           // 0x05
	D_NONE                           // 0x06
	D_PAIR                           // 0x07
	D_RIGHT                          // 0x08
	D_SOME                           // 0x09
	D_TRUE                           // 0x0a
	D_UNIT                           // 0x0b
	I_PACK                           // 0x0c
	I_UNPACK                         // 0x0d
	I_BLAKE2B                        // 0x0e
	I_SHA256                         // 0x0f
	I_SHA512                         // 0x10
	I_ABS                            // 0x11
	I_ADD                            // 0x12
	I_AMOUNT                         // 0x13
	I_AND                            // 0x14
	I_BALANCE                        // 0x15
	I_CAR                            // 0x16
	I_CDR                            // 0x17
	I_CHECK_SIGNATURE                // 0x18
	I_COMPARE                        // 0x19
	I_CONCAT                         // 0x1a
	I_CONS                           // 0x1b
	I_CREATE_ACCOUNT                 // 0x1c
	I_CREATE_CONTRACT                // 0x1d
	I_IMPLICIT_ACCOUNT               // 0x1e
	I_DIP                            // 0x1f
	I_DROP                           // 0x20
	I_DUP                            // 0x21
	I_EDIV                           // 0x22
	I_EMPTY_MAP                      // 0x23
	I_EMPTY_SET                      // 0x24
	I_EQ                             // 0x25
	I_EXEC                           // 0x26
	I_FAILWITH                       // 0x27
	I_GE                             // 0x28
	I_GET                            // 0x29
	I_GT                             // 0x2a
	I_HASH_KEY                       // 0x2b
	I_IF                             // 0x2c
	I_IF_CONS                        // 0x2d
	I_IF_LEFT                        // 0x2e
	I_IF_NONE                        // 0x2f
	I_INT                            // 0x30
	I_LAMBDA                         // 0x31
	I_LE                             // 0x32
	I_LEFT                           // 0x33
	I_LOOP                           // 0x34
	I_LSL                            // 0x35
	I_LSR                            // 0x36
	I_LT                             // 0x37
	I_MAP                            // 0x38
	I_MEM                            // 0x39
	I_MUL                            // 0x3a
	I_NEG                            // 0x3b
	I_NEQ                            // 0x3c
	I_NIL                            // 0x3d
	I_NONE                           // 0x3e
	I_NOT                            // 0x3f
	I_NOW                            // 0x40
	I_OR                             // 0x41
	I_PAIR                           // 0x42
	I_PUSH                           // 0x43
	I_RIGHT                          // 0x44
	I_SIZE                           // 0x45
	I_SOME                           // 0x46
	I_SOURCE                         // 0x47
	I_SENDER                         // 0x48
	I_SELF                           // 0x49
	I_STEPS_TO_QUOTA                 // 0x4a
	I_SUB                            // 0x4b
	I_SWAP                           // 0x4c
	I_TRANSFER_TOKENS                // 0x4d
	I_SET_DELEGATE                   // 0x4e
	I_UNIT                           // 0x4f
	I_UPDATE                         // 0x50
	I_XOR                            // 0x51
	I_ITER                           // 0x52
	I_LOOP_LEFT                      // 0x53
	I_ADDRESS                        // 0x54
	I_CONTRACT                       // 0x55
	I_ISNAT                          // 0x56
	I_CAST                           // 0x57
	I_RENAME                         // 0x58
	T_BOOL                           // 0x59
	T_CONTRACT                       // 0x5a
	T_INT                            // 0x5b
	T_KEY                            // 0x5c
	T_KEY_HASH                       // 0x5d
	T_LAMBDA                         // 0x5e
	T_LIST                           // 0x5f
	T_MAP                            // 0x60
	T_BIG_MAP                        // 0x61
	T_NAT                            // 0x62
	T_OPTION                         // 0x63
	T_OR                             // 0x64
	T_PAIR                           // 0x65
	T_SET                            // 0x66
	T_SIGNATURE                      // 0x67
	T_STRING                         // 0x68
	T_BYTES                          // 0x69
	T_MUTEZ                          // 0x6a
	T_TIMESTAMP                      // 0x6b
	T_UNIT                           // 0x6c
	T_OPERATION                      // 0x6d
	T_ADDRESS                        // 0x6e
	I_SLICE                          // 0x6f
	I_DIG                            // 0x70
	I_DUG                            // 0x71
	I_EMPTY_BIG_MAP                  // 0x72
	I_APPLY                          // 0x73
	T_CHAIN_ID                       // 0x74
	I_CHAIN_ID                       // 0x75
	I_LEVEL                          // 0x76
	I_SELF_ADDRESS                   // 0x77
	T_NEVER                          // 0x78
	I_NEVER                          // 0x79
	I_UNPAIR                         // 0x7a
	I_VOTING_POWER                   // 0x7b
	I_TOTAL_VOTING_POWER             // 0x7c
	I_KECCAK                         // 0x7d
	I_SHA3                           // 0x7e
	I_PAIRING_CHECK                  // 0x7f
	T_BLS12_381_G1                   // 0x80
	T_BLS12_381_G2                   // 0x81
	T_BLS12_381_FR                   // 0x82
	T_SAPLING_STATE                  // 0x83
	T_SAPLING_TRANSACTION_DEPRECATED // 0x84
	I_SAPLING_EMPTY_STATE            // 0x85
	I_SAPLING_VERIFY_UPDATE          // 0x86
	T_TICKET                         // 0x87
	I_TICKET_DEPRECATED              // 0x88
	I_READ_TICKET                    // 0x89
	I_SPLIT_TICKET                   // 0x8a
	I_JOIN_TICKETS                   // 0x8b
	I_GET_AND_UPDATE                 // 0x8c
	T_CHEST                          // 0x8d
	T_CHEST_KEY                      // 0x8e
	I_OPEN_CHEST                     // 0x8f
	I_VIEW                           // 0x90
	K_VIEW                           // 0x91
	H_CONSTANT                       // 0x92
	I_SUB_MUTEZ                      // 0x93
	T_TX_ROLLUP_L2_ADDRESS           // 0x94
	I_MIN_BLOCK_TIME                 // 0x95
	T_SAPLING_TRANSACTION            // 0x96
	I_EMIT                           // 0x97
	D_LAMBDA_REC                     // 0x98
	I_LAMBDA_REC                     // 0x99
	I_TICKET                         // 0x9a
	I_BYTES                          // 0x9b
	I_NAT                            // 0x9c
)

var opCodeNames = [...]string{
	K_PARAMETER:                      "parameter",
	K_STORAGE:                        "storage",
	K_CODE:                           "code",
	D_FALSE:                          "False",
	D_ELT:                            "Elt",
	D_LEFT:                           "Left",
	D_NONE:                           "None",
	D_PAIR:                           "Pair",
	D_RIGHT:                          "Right",
	D_SOME:                           "Some",
	D_TRUE:                           "True",
	D_UNIT:                           "Unit",
	I_PACK:                           "PACK",
	I_UNPACK:                         "UNPACK",
	I_BLAKE2B:                        "BLAKE2B",
	I_SHA256:                         "SHA256",
	I_SHA512:                         "SHA512",
	I_ABS:                            "ABS",
	I_ADD:                            "ADD",
	I_AMOUNT:                         "AMOUNT",
	I_AND:                            "AND",
	I_BALANCE:                        "BALANCE",
	I_CAR:                            "CAR",
	I_CDR:                            "CDR",
	I_CHECK_SIGNATURE:                "CHECK_SIGNATURE",
	I_COMPARE:                        "COMPARE",
	I_CONCAT:                         "CONCAT",
	I_CONS:                           "CONS",
	I_CREATE_ACCOUNT:                 "CREATE_ACCOUNT",
	I_CREATE_CONTRACT:                "CREATE_CONTRACT",
	I_IMPLICIT_ACCOUNT:               "IMPLICIT_ACCOUNT",
	I_DIP:                            "DIP",
	I_DROP:                           "DROP",
	I_DUP:                            "DUP",
	I_EDIV:                           "EDIV",
	I_EMPTY_MAP:                      "EMPTY_MAP",
	I_EMPTY_SET:                      "EMPTY_SET",
	I_EQ:                             "EQ",
	I_EXEC:                           "EXEC",
	I_FAILWITH:                       "FAILWITH",
	I_GE:                             "GE",
	I_GET:                            "GET",
	I_GT:                             "GT",
	I_HASH_KEY:                       "HASH_KEY",
	I_IF:                             "IF",
	I_IF_CONS:                        "IF_CONS",
	I_IF_LEFT:                        "IF_LEFT",
	I_IF_NONE:                        "IF_NONE",
	I_INT:                            "INT",
	I_LAMBDA:                         "LAMBDA",
	I_LE:                             "LE",
	I_LEFT:                           "LEFT",
	I_LOOP:                           "LOOP",
	I_LSL:                            "LSL",
	I_LSR:                            "LSR",
	I_LT:                             "LT",
	I_MAP:                            "MAP",
	I_MEM:                            "MEM",
	I_MUL:                            "MUL",
	I_NEG:                            "NEG",
	I_NEQ:                            "NEQ",
	I_NIL:                            "NIL",
	I_NONE:                           "NONE",
	I_NOT:                            "NOT",
	I_NOW:                            "NOW",
	I_OR:                             "OR",
	I_PAIR:                           "PAIR",
	I_PUSH:                           "PUSH",
	I_RIGHT:                          "RIGHT",
	I_SIZE:                           "SIZE",
	I_SOME:                           "SOME",
	I_SOURCE:                         "SOURCE",
	I_SENDER:                         "SENDER",
	I_SELF:                           "SELF",
	I_STEPS_TO_QUOTA:                 "STEPS_TO_QUOTA",
	I_SUB:                            "SUB",
	I_SWAP:                           "SWAP",
	I_TRANSFER_TOKENS:                "TRANSFER_TOKENS",
	I_SET_DELEGATE:                   "SET_DELEGATE",
	I_UNIT:                           "UNIT",
	I_UPDATE:                         "UPDATE",
	I_XOR:                            "XOR",
	I_ITER:                           "ITER",
	I_LOOP_LEFT:                      "LOOP_LEFT",
	I_ADDRESS:                        "ADDRESS",
	I_CONTRACT:                       "CONTRACT",
	I_ISNAT:                          "ISNAT",
	I_CAST:                           "CAST",
	I_RENAME:                         "RENAME",
	T_BOOL:                           "bool",
	T_CONTRACT:                       "contract",
	T_INT:                            "int",
	T_KEY:                            "key",
	T_KEY_HASH:                       "key_hash",
	T_LAMBDA:                         "lambda",
	T_LIST:                           "list",
	T_MAP:                            "map",
	T_BIG_MAP:                        "big_map",
	T_NAT:                            "nat",
	T_OPTION:                         "option",
	T_OR:                             "or",
	T_PAIR:                           "pair",
	T_SET:                            "set",
	T_SIGNATURE:                      "signature",
	T_STRING:                         "string",
	T_BYTES:                          "bytes",
	T_MUTEZ:                          "mutez",
	T_TIMESTAMP:                      "timestamp",
	T_UNIT:                           "unit",
	T_OPERATION:                      "operation",
	T_ADDRESS:                        "address",
	I_SLICE:                          "SLICE",
	I_DIG:                            "DIG",
	I_DUG:                            "DUG",
	I_EMPTY_BIG_MAP:                  "EMPTY_BIG_MAP",
	I_APPLY:                          "APPLY",
	T_CHAIN_ID:                       "chain_id",
	I_CHAIN_ID:                       "CHAIN_ID",
	I_LEVEL:                          "LEVEL",
	I_SELF_ADDRESS:                   "SELF_ADDRESS",
	T_NEVER:                          "never",
	I_NEVER:                          "NEVER",
	I_UNPAIR:                         "UNPAIR",
	I_VOTING_POWER:                   "VOTING_POWER",
	I_TOTAL_VOTING_POWER:             "TOTAL_VOTING_POWER",
	I_KECCAK:                         "KECCAK",
	I_SHA3:                           "SHA3",
	I_PAIRING_CHECK:                  "PAIRING_CHECK",
	T_BLS12_381_G1:                   "bls12_381_g1",
	T_BLS12_381_G2:                   "bls12_381_g2",
	T_BLS12_381_FR:                   "bls12_381_fr",
	T_SAPLING_STATE:                  "sapling_state",
	T_SAPLING_TRANSACTION_DEPRECATED: "sapling_transaction_deprecated",
	I_SAPLING_EMPTY_STATE:            "SAPLING_EMPTY_STATE",
	I_SAPLING_VERIFY_UPDATE:          "SAPLING_VERIFY_UPDATE",
	T_TICKET:                         "ticket",
	I_TICKET_DEPRECATED:              "TICKET_DEPRECATED",
	I_READ_TICKET:                    "READ_TICKET",
	I_SPLIT_TICKET:                   "SPLIT_TICKET",
	I_JOIN_TICKETS:                   "JOIN_TICKETS",
	I_GET_AND_UPDATE:                 "GET_AND_UPDATE",
	T_CHEST:                          "chest",
	T_CHEST_KEY:                      "chest_key",
	I_OPEN_CHEST:                     "OPEN_CHEST",
	I_VIEW:                           "VIEW",
	K_VIEW:                           "view",
	H_CONSTANT:                       "constant",
	I_SUB_MUTEZ:                      "SUB_MUTEZ",
	T_TX_ROLLUP_L2_ADDRESS:           "tx_rollup_l2_address",
	I_MIN_BLOCK_TIME:                 "MIN_BLOCK_TIME",
	T_SAPLING_TRANSACTION:            "sapling_transaction",
	I_EMIT:                           "EMIT",
	D_LAMBDA_REC:                     "Lambda_rec",
	I_LAMBDA_REC:                     "LAMBDA_REC",
	I_TICKET:                         "TICKET",
	I_BYTES:                          "BYTES",
	I_NAT:                            "NAT",
}

var opCodesByName map[string]OpCode

func init() {
	opCodesByName = make(map[string]OpCode, len(opCodeNames))
	for i, n := range opCodeNames {
		opCodesByName[n] = OpCode(i)
	}
}

func (op OpCode) String() string {
	if int(op) < len(opCodeNames) {
		return opCodeNames[op]
	}
	return fmt.Sprintf("Unknown(0x%02x)", byte(op))
}

// IsValid reports whether op is a known primitive.
func (op OpCode) IsValid() bool {
	return int(op) < len(opCodeNames)
}

// IsType reports whether op names a Michelson type.
func (op OpCode) IsType() bool {
	if !op.IsValid() {
		return false
	}
	n := opCodeNames[op]
	return n[0] >= 'a' && n[0] <= 'z' && op != K_PARAMETER && op != K_STORAGE && op != K_CODE && op != K_VIEW && op != H_CONSTANT
}

// ParseOpCode returns the primitive with the given Michelson name.
func ParseOpCode(name string) (OpCode, error) {
	op, ok := opCodesByName[name]
	if !ok {
		return 0, fmt.Errorf("micheline: unknown primitive %q", name)
	}
	return op, nil
}

// MarshalText implements encoding.TextMarshaler.
func (op OpCode) MarshalText() ([]byte, error) {
	if !op.IsValid() {
		return nil, fmt.Errorf("micheline: invalid primitive 0x%02x", byte(op))
	}
	return []byte(opCodeNames[op]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (op *OpCode) UnmarshalText(data []byte) error {
	v, err := ParseOpCode(string(data))
	if err != nil {
		return err
	}
	*op = v
	return nil
}
