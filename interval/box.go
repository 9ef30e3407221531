package interval

// Box is an n-D interval vector, the domain type the root finder (package
// rootfind) bisects and the TOI kernels evaluate their residuals over.
type Box []I

// NewBox copies bounds into a Box.
func NewBox(bounds ...I) Box {
	b := make(Box, len(bounds))
	copy(b, bounds)
	return b
}

// Clone returns an independent copy of b.
func (b Box) Clone() Box {
	c := make(Box, len(b))
	copy(c, b)
	return c
}

// Width returns the componentwise width vector.
func (b Box) Width() []float64 {
	w := make([]float64, len(b))
	for i, x := range b {
		w[i] = x.Width()
	}
	return w
}

// ZeroIn reports whether every component contains 0, i.e. the vector
// function this box encloses could be zero everywhere at once.
func (b Box) ZeroIn() bool {
	for _, x := range b {
		if !x.ZeroIn() {
			return false
		}
	}
	return true
}

// WithinTol reports whether every component's width is <= the matching
// tolerance.
func (b Box) WithinTol(tol []float64) bool {
	for i, x := range b {
		if x.Width() > tol[i] {
			return false
		}
	}
	return true
}

// SplitAxis picks the axis maximizing width(x)_i / tol_i among axes where
// width(x)_i > tol_i, per the interval root finder's split rule. It returns
// -1 if every axis is already within tolerance.
func (b Box) SplitAxis(tol []float64) int {
	best := -1
	bestRatio := 0.0
	for i, x := range b {
		w := x.Width()
		if w <= tol[i] {
			continue
		}
		ratio := w / tol[i]
		if best == -1 || ratio > bestRatio {
			best = i
			bestRatio = ratio
		}
	}
	return best
}

// BisectAxis splits b on axis i into two boxes that share every other axis
// and jointly cover b's extent along i.
func (b Box) BisectAxis(i int) (lo, hi Box) {
	lo, hi = b.Clone(), b.Clone()
	loI, hiI := b[i].Bisect()
	lo[i], hi[i] = loI, hiI
	return lo, hi
}

// Origin returns the degenerate box at b's lower-left corner, i.e. the box
// [lo_0,lo_0] x ... x [lo_n,lo_n].
func (b Box) Origin() Box {
	o := make(Box, len(b))
	for i, x := range b {
		o[i] = Point(x.Lo)
	}
	return o
}
