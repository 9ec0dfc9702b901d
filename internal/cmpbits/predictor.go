package cmpbits

// Model-predictive decorrelation (spec.md §4.4): a fixed-point
// forward/inverse predictor pair with a signed-to-unsigned fold,
// optional lossy bit-rounding, and a 16-point integer model update.
//
// Grounded on the shape of the teacher's dynamic predictor
// (internal/alac/predictor.go's UnpcBlock): a forward transform that
// subtracts a running reference and a sign-aware inverse that adds it
// back, both done in truncated fixed-width arithmetic with half-up
// rounding via a shift-and-round idiom (denHalf/denShift there,
// the "+8)/16" fixed-point divide here). The teacher adapts its
// coefficients with an LMS-style sign-matching update; this predictor's
// model instead tracks a exponentially-weighted running value, the
// same rounding convention but a single multiply-accumulate in place
// of UnpcBlock's coefficient vector.

// RoundFwd treats the low r bits of x as noise and discards them.
func RoundFwd(x uint32, r uint) uint32 { return x >> r }

// RoundInv reverses RoundFwd, reintroducing r zero low bits.
func RoundInv(x uint32, r uint) uint32 { return x << r }

// MapToPos bijectively folds a signed residue delta (held as its W-bit
// two's-complement representation) onto [0, 2^W): negatives become odd,
// non-negatives become even.
func MapToPos(delta uint32, w uint) uint32 {
	domain := uint64(1) << w
	d := uint64(delta) & (domain - 1)

	signBit := uint64(1) << (w - 1)
	if d&signBit != 0 {
		return uint32((2*(domain-d) - 1) & (domain - 1))
	}

	return uint32((2 * d) & (domain - 1))
}

// UnmapFromPos inverts MapToPos, returning the W-bit two's-complement
// residue delta that produced folded value u.
func UnmapFromPos(u uint32, w uint) uint32 {
	domain := uint64(1) << w

	var delta uint64
	if u&1 != 0 {
		delta = (domain - (uint64(u)+1)/2) & (domain - 1)
	} else {
		delta = uint64(u) / 2
	}

	return uint32(delta)
}

// ForwardResidual computes the folded value sent to the escape layer for
// one field sample, per spec.md §4.4 steps 1-5. It returns ErrValueTooLarge
// if data or model does not fit in w bits after rounding.
func ForwardResidual(data, model uint32, r, w uint) (uint32, error) {
	d := RoundFwd(data, r)
	mPrime := RoundFwd(model, r)

	domain := uint64(1) << w
	if uint64(d) >= domain || uint64(mPrime) >= domain {
		return 0, ErrValueTooLarge
	}

	delta := uint32((uint64(d) - uint64(mPrime)) & (domain - 1))

	return MapToPos(delta, w), nil
}

// InverseResidual reconstructs the original field sample from a decoded
// folded value u and the (unrounded) model value, per spec.md §4.4's
// decode inversion.
func InverseResidual(u, model uint32, r, w uint) uint32 {
	delta := UnmapFromPos(u, w)
	mPrime := RoundFwd(model, r)

	domain := uint64(1) << w
	data := uint32((uint64(delta) + uint64(mPrime)) & (domain - 1))

	return RoundInv(data, r)
}

// ModelUpdate16 computes the half-up-rounded exponential model update for
// 16-bit-and-narrower fields. mu is in [0,16]; mu=0 freezes the model,
// mu=16 replaces it outright.
func ModelUpdate16(data, modelOld uint32, mu uint32) uint32 {
	return (mu*data + (16-mu)*modelOld + 8) / 16
}

// ModelUpdate32 is ModelUpdate16's 64-bit-accumulator counterpart, for
// wide fields such as fx, ncob, efx and ecob where data and model may
// approach 2^32-1.
func ModelUpdate32(data, modelOld uint64, mu uint32) uint64 {
	return (uint64(mu)*data + uint64(16-mu)*modelOld + 8) / 16
}
