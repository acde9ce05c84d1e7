package roughtime

import (
	"crypto/rand"
	"io"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Sturdy-Statistics/roughtime-protocol/merkle"
	"github.com/Sturdy-Statistics/roughtime-protocol/sig"
	"github.com/Sturdy-Statistics/roughtime-protocol/version"
)

// DefaultValidity is the online key pair's default validity window,
// spec.md §4.12 ("Default validity window is 3,600 seconds").
const DefaultValidity = time.Hour

// certVersionGroups partitions version.Supported into the three CERT
// variants spec.md §4.12 mints: Google (microseconds, legacy context),
// early IETF (seconds, legacy context) and v >= Fiducial (seconds,
// modern context). Any one of these three CERT bytes is reused for
// every version that shares its (timestamp unit, signature context)
// pair — minting per-variant rather than per-version avoids eight
// redundant Ed25519 signatures that would verify identically.
func certVersionGroups() [][]version.Version {
	var legacyMicro, legacySec, modern []version.Version
	for _, v := range version.Supported {
		switch {
		case v == version.Google:
			legacyMicro = append(legacyMicro, v)
		case v < version.Fiducial:
			legacySec = append(legacySec, v)
		default:
			modern = append(modern, v)
		}
	}
	return [][]version.Version{legacyMicro, legacySec, modern}
}

// MintedCerts is the result of Mint: one CERT per supported version
// (three distinct byte strings shared across the versions that mint
// the same variant) plus the online private key every response in the
// validity window signs SREPs with.
type MintedCerts struct {
	OnlinePrivate sig.PrivateKey
	OnlinePublic  sig.PublicKey
	CertByVersion map[version.Version][]byte
	Min, Max      time.Time
}

// Mint generates a fresh online Ed25519 key pair and delegates it, for
// every supported version, via a CERT signed by the server's long-term
// key, per spec.md §4.12. validity defaults to DefaultValidity when
// zero; rnd defaults to crypto/rand.Reader when nil.
func Mint(longtermPrv sig.PrivateKey, validity time.Duration, rnd io.Reader) (MintedCerts, error) {
	if validity == 0 {
		validity = DefaultValidity
	}
	if rnd == nil {
		rnd = rand.Reader
	}
	onlinePub, onlinePrv, err := sig.GenerateKey(rnd)
	if err != nil {
		return MintedCerts{}, err
	}
	now := time.Now()
	min, max := now, now.Add(validity)

	out := MintedCerts{
		OnlinePrivate: onlinePrv,
		OnlinePublic:  onlinePub,
		CertByVersion: make(map[version.Version][]byte, len(version.Supported)),
		Min:           min,
		Max:           max,
	}
	for _, group := range certVersionGroups() {
		if len(group) == 0 {
			continue
		}
		rep := group[0]
		cert, err := MintCertificate(rep, longtermPrv, Delegation{PublicKey: onlinePub, Min: min, Max: max})
		if err != nil {
			return MintedCerts{}, err
		}
		raw, err := EncodeCertificate(cert)
		if err != nil {
			return MintedCerts{}, err
		}
		for _, v := range group {
			out.CertByVersion[v] = raw
		}
	}
	return out, nil
}

// RespondSingle builds a one-leaf Merkle tree for req and returns the
// signed response packet, per spec.md §4.12 ("Respond (single)").
func RespondSingle(req ParsedRequest, certs MintedCerts, midpoint time.Time, radius time.Duration) ([]byte, error) {
	certRaw, ok := certs.CertByVersion[req.Version]
	if !ok {
		return nil, newError(KindInvalidRequest, "unsupported version")
	}
	opts := version.MerkleOptions(req.Version)
	leaf := version.MerkleLeafData(req.Version, req.Nonce, req.RequestBytes)
	root, err := merkle.ComputeRoot([][]byte{leaf}, opts)
	if err != nil {
		return nil, err
	}
	// BuildSREP only consumes the nonce argument for v1/v2 (embedded in
	// the signed SREP); every other version carries NONC at the
	// top level instead, via AssembleResponse.
	srepRaw, err := BuildSREP(req.Version, root, midpoint, radius, req.Nonce, []uint32{uint32(req.Version)})
	if err != nil {
		return nil, err
	}
	signature := sig.SignWithContext(sig.ContextSREP, srepRaw, certs.OnlinePrivate)
	path, err := merkle.BuildPath([][]byte{leaf}, 0, opts)
	if err != nil {
		return nil, err
	}
	return AssembleResponse(req.Version, srepRaw, signature, 0, path, certRaw, req.Nonce)
}

// batchItem tracks one request's original position through grouping so
// RespondBatch can restore input order after processing each version
// group independently.
type batchItem struct {
	pos int
	req ParsedRequest
}

// RespondBatch parses every raw request in reqs, groups them by
// negotiated version, builds one Merkle tree and one shared SREP/
// signature per group, and assembles one response per input position,
// per spec.md §4.12 ("Respond (batch)"). A slot is nil when its request
// failed to parse or negotiated a version that cannot batch
// (0x80000001/0x80000002). The returned slice has the same length and
// positional order as reqs; a parse or assembly failure inside one
// version group degrades that group's slots to nil rather than
// aborting the whole batch.
func RespondBatch(reqs [][]byte, minSizeBytes int, certs MintedCerts, midpoint time.Time, radius time.Duration) ([][]byte, error) {
	out := make([][]byte, len(reqs))

	groups := make(map[version.Version][]batchItem)
	for i, raw := range reqs {
		pr, err := ParseRequest(raw, minSizeBytes)
		if err != nil {
			continue // leaves out[i] nil, per §4.12 step 1
		}
		groups[pr.Version] = append(groups[pr.Version], batchItem{pos: i, req: pr})
	}

	var g errgroup.Group
	for v, items := range groups {
		v, items := v, items
		g.Go(func() error {
			respondGroup(v, items, certs, midpoint, radius, out)
			return nil
		})
	}
	// Every call into respondGroup only ever writes to the positions it
	// owns (items[*].pos, each unique across the whole batch), so the
	// goroutines never race on out; Wait only needs to join them.
	_ = g.Wait()
	return out, nil
}

// respondGroup builds one shared tree/SREP/signature for items (all of
// the same negotiated version) and fills in out[item.pos] for each.
func respondGroup(v version.Version, items []batchItem, certs MintedCerts, midpoint time.Time, radius time.Duration, out [][]byte) {
	if !version.CanBatch(v) {
		return // every slot stays nil, per §4.12 step 3
	}
	certRaw, ok := certs.CertByVersion[v]
	if !ok {
		return
	}
	opts := version.MerkleOptions(v)
	leaves := make([][]byte, len(items))
	for i, it := range items {
		leaves[i] = version.MerkleLeafData(v, it.req.Nonce, it.req.RequestBytes)
	}
	tree, err := merkle.BuildAll(leaves, opts)
	if err != nil {
		return
	}
	srepRaw, err := BuildSREP(v, tree.Root, midpoint, radius, nil, []uint32{uint32(v)})
	if err != nil {
		return
	}
	signature := sig.SignWithContext(sig.ContextSREP, srepRaw, certs.OnlinePrivate)

	for i, it := range items {
		resp, err := AssembleResponse(v, srepRaw, signature, uint32(i), tree.Paths[i], certRaw, it.req.Nonce)
		if err != nil {
			continue
		}
		out[it.pos] = resp
	}
}
