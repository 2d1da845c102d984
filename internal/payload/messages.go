package payload

import (
	"encoding/json"
	"fmt"
)

// Info bits requested in a retrieve message.
const (
	InfoControl       = 1
	InfoSchedules     = 2
	InfoConfiguration = 4
	InfoReport        = 8
	InfoStatus        = 16
	InfoWifiScan      = 32

	// InfoDefault asks for everything except the wifi scan.
	InfoDefault = InfoControl | InfoSchedules | InfoConfiguration | InfoReport | InfoStatus
)

// Pairing states in acc_status.
const (
	AccessPending  = 1
	AccessGranted  = 2
	AccessDenied   = 3
	accountTypeApp = 0
)

// Account identifies this collector to the thermostat.
type Account struct {
	UserAccount string `json:"user_account"`
	MACAddress  string `json:"mac_address"`
	DeviceName  string `json:"device_name,omitempty"`
	AccountType *int   `json:"account_type,omitempty"`
}

type pairMessage struct {
	PairMessage struct {
		SeqNr    int `json:"seqnr"`
		Accounts struct {
			Entries []Account `json:"entries"`
		} `json:"accounts"`
	} `json:"pair_message"`
}

type retrieveMessage struct {
	RetrieveMessage struct {
		SeqNr       int     `json:"seqnr"`
		AccountAuth Account `json:"account_auth"`
		Info        int     `json:"info"`
	} `json:"retrieve_message"`
}

// EncodePairMessage builds the pairing request for one account.
func EncodePairMessage(acc Account) ([]byte, error) {
	var m pairMessage
	typ := accountTypeApp
	acc.AccountType = &typ
	m.PairMessage.Accounts.Entries = []Account{acc}
	return json.Marshal(m)
}

// EncodeRetrieveMessage builds the retrieve request with the given info bitmask.
func EncodeRetrieveMessage(acc Account, info int) ([]byte, error) {
	var m retrieveMessage
	m.RetrieveMessage.AccountAuth = Account{UserAccount: acc.UserAccount, MACAddress: acc.MACAddress}
	m.RetrieveMessage.Info = info
	return json.Marshal(m)
}

type pairReply struct {
	PairReply *struct {
		SeqNr     int  `json:"seqnr"`
		AccStatus *int `json:"acc_status"`
	} `json:"pair_reply"`
}

// ParsePairReply extracts acc_status from {"pair_reply":{"acc_status":N}}.
func ParsePairReply(data []byte) (int, error) {
	var r pairReply
	if err := json.Unmarshal(data, &r); err != nil {
		return 0, malformed("%v", err)
	}
	if r.PairReply == nil || r.PairReply.AccStatus == nil {
		return 0, &IncompleteError{Missing: []string{"pair_reply.acc_status"}}
	}
	return *r.PairReply.AccStatus, nil
}

type retrieveAccess struct {
	RetrieveReply *struct {
		AccStatus *int `json:"acc_status"`
	} `json:"retrieve_reply"`
}

// RetrieveAccStatus reports the acc_status of a retrieve reply, if it has one.
// Undecodable input reports false; Parse is where syntax errors surface.
func RetrieveAccStatus(data []byte) (int, bool) {
	var r retrieveAccess
	if err := json.Unmarshal(data, &r); err != nil || r.RetrieveReply == nil || r.RetrieveReply.AccStatus == nil {
		return 0, false
	}
	return *r.RetrieveReply.AccStatus, true
}

// AccessName is a readable label for an acc_status value.
func AccessName(status int) string {
	switch status {
	case AccessPending:
		return "pending"
	case AccessGranted:
		return "granted"
	case AccessDenied:
		return "denied"
	default:
		return fmt.Sprintf("unknown(%d)", status)
	}
}
