package worldstate

import "encoding/hex"

// Key layout, grounded on pkg/ledger/store.go's prefixed key scheme.
var (
	prefixAccount          = []byte("account:")   // + "name@domain"
	prefixAsset            = []byte("asset:")     // + "name#domain"
	prefixDomain           = []byte("domain:")    // + domain_id
	prefixRole             = []byte("role:")      // + role_name
	prefixAccountAsset     = []byte("accasset:")  // + account_id + ":" + asset_id
	prefixAccountSignatory = []byte("accsig:")    // + account_id + ":" + pubkeyhex
	prefixSignatoryAccount = []byte("sigacc:")    // + pubkeyhex + ":" + account_id (reverse index)
	prefixSignatory        = []byte("signatory:") // + pubkeyhex
	prefixGrantable        = []byte("grantable:") // + grantee + ":" + grantor + ":" + permission
	keyPeers               = []byte("peers:list") // -> json [] Peer
)

func accountKey(id string) []byte { return append(append([]byte{}, prefixAccount...), id...) }
func assetKey(id string) []byte   { return append(append([]byte{}, prefixAsset...), id...) }
func domainKey(id string) []byte  { return append(append([]byte{}, prefixDomain...), id...) }
func roleKey(name string) []byte  { return append(append([]byte{}, prefixRole...), name...) }
func signatoryKey(pubkeyHex string) []byte {
	return append(append([]byte{}, prefixSignatory...), pubkeyHex...)
}

func accountAssetKey(accountID, assetID string) []byte {
	return []byte(string(prefixAccountAsset) + accountID + ":" + assetID)
}

func accountSignatoryKey(accountID, pubkeyHex string) []byte {
	return []byte(string(prefixAccountSignatory) + accountID + ":" + pubkeyHex)
}

func accountSignatoryPrefix(accountID string) []byte {
	return []byte(string(prefixAccountSignatory) + accountID + ":")
}

func signatoryAccountKey(pubkeyHex, accountID string) []byte {
	return []byte(string(prefixSignatoryAccount) + pubkeyHex + ":" + accountID)
}

func signatoryAccountPrefix(pubkeyHex string) []byte {
	return []byte(string(prefixSignatoryAccount) + pubkeyHex + ":")
}

func grantableKey(grantee, grantor, permission string) []byte {
	return []byte(string(prefixGrantable) + grantee + ":" + grantor + ":" + permission)
}

func hexKey(pubkey []byte) string { return hex.EncodeToString(pubkey) }
