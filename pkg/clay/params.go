package clay

import (
	"fmt"
	"strconv"
)

// Profile is the external key/value configuration contract: string keys
// to string values, unknown keys ignored, missing keys defaulted.
type Profile map[string]string

const (
	defaultK = 4
	defaultM = 2
	defaultW = 8

	maxTotalNodes = 254
)

// Params holds the immutable, validated and derived parameters of a Clay
// instance. Once returned from deriveParams, nothing here ever changes.
type Params struct {
	K, M, D, W int

	// Q is the coupling factor d-k+1.
	Q int
	// Nu is the shortening: the number of virtual zero nodes added so
	// that q divides k+m+nu.
	Nu int
	// T is the stripe count (k+m+nu)/q, i.e. the number of y-sections.
	T int
	// Alpha is the sub-chunk count per chunk, q^t.
	Alpha int

	Mapping string
}

func (p *Params) mdsK() int { return p.K + p.Nu }

// deriveParams validates a profile's k, m, d, w and computes q, nu, t and
// alpha, in the validation order the spec requires: integer parsing,
// then k >= 2, then m >= 1, then k <= d <= k+m-1, then k+m+nu <= 254.
func deriveParams(profile Profile) (*Params, error) {
	k, err := parseIntDefault(profile, "k", defaultK)
	if err != nil {
		return nil, invalidProfile("k", err)
	}
	m, err := parseIntDefault(profile, "m", defaultM)
	if err != nil {
		return nil, invalidProfile("m", err)
	}
	d, err := parseIntDefault(profile, "d", k+m-1)
	if err != nil {
		return nil, invalidProfile("d", err)
	}
	w, err := parseIntDefault(profile, "w", defaultW)
	if err != nil {
		return nil, invalidProfile("w", err)
	}

	if k < 2 {
		return nil, invalidProfile("k", fmt.Errorf("k must be >= 2, got %d", k))
	}
	if m < 1 {
		return nil, invalidProfile("m", fmt.Errorf("m must be >= 1, got %d", m))
	}
	if d < k || d > k+m-1 {
		return nil, invalidProfile("d", fmt.Errorf("d must be within [%d, %d], got %d", k, k+m-1, d))
	}
	if w != 8 {
		return nil, invalidProfile("w", fmt.Errorf("w must be 8, got %d", w))
	}

	if err := validatePlugin(profile, "scalar_mds", "jerasure"); err != nil {
		return nil, err
	}
	if err := validatePlugin(profile, "technique", "reed_sol_van"); err != nil {
		return nil, err
	}

	q := d - k + 1
	nu := (q - (k+m)%q) % q
	if k+m+nu > maxTotalNodes {
		return nil, invalidProfile("k,m,d", fmt.Errorf("k+m+nu = %d exceeds %d", k+m+nu, maxTotalNodes))
	}
	t := (k + m + nu) / q
	alpha := intPow(q, t)

	return &Params{
		K: k, M: m, D: d, W: w,
		Q: q, Nu: nu, T: t, Alpha: alpha,
		Mapping: profile["mapping"],
	}, nil
}

func validatePlugin(profile Profile, key, want string) error {
	v, ok := profile[key]
	if !ok || v == "" {
		return nil
	}
	if v != want {
		return invalidProfile(key, fmt.Errorf("%q is not supported, use %q", v, want))
	}
	return nil
}

func parseIntDefault(profile Profile, key string, def int) (int, error) {
	v, ok := profile[key]
	if !ok || v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse %q as int: %w", v, err)
	}
	return n, nil
}

func intPow(base, exp int) int {
	result := 1
	for exp > 0 {
		if exp&1 == 1 {
			result *= base
		}
		base *= base
		exp >>= 1
	}
	return result
}
