package field_params

const (
	RootLength         = 32 // RootLength defines the byte length of a Merkle root.
	BLSSignatureLength = 96 // BLSSignatureLength defines the byte length of a BLSSignature.
	BLSPubkeyLength    = 48 // BLSPubkeyLength defines the byte length of a BLSPubkey.
	BLSSecretKeyLength = 32 // BLSSecretKeyLength defines the byte length of a BLS secret key.
	VersionLength      = 4  // VersionLength defines the byte length of a fork version number.
	DomainLength       = 32 // DomainLength defines the byte length of a signature domain.
	DomainTypeLength   = 4  // DomainTypeLength defines the byte length of a domain type.
	GraffitiLength     = 32 // GraffitiLength defines the byte length of a block graffiti.
	BeaconStateFields  = 21 // BeaconStateFields is the number of top level fields of a phase0 beacon state.
)
