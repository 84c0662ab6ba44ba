package preprocessing

import (
	"math"

	"github.com/YuminosukeSato/fraudflow/pkg/errors"
)

// 1次元最小化のパラメータ（SciPyのoptimize.brentと同じ値）
const (
	brentTol      = 1.48e-8
	brentMaxIter  = 500
	brentMinTol   = 1.0e-11
	brentCGold    = 0.3819660
	bracketGold   = 1.618034
	bracketGrow   = 110.0
	bracketMaxIt  = 1000
	bracketTinyDv = 1e-21
)

// bracket は xa, xb から出発して f(xb) < f(xa), f(xb) < f(xc) を満たす
// 3点を黄金比による拡張と放物線補間で探索する
func bracket(f func(float64) float64, xa, xb float64) (a, b, c, fa, fb, fc float64, err error) {
	fa = f(xa)
	fb = f(xb)
	if fa < fb {
		xa, xb = xb, xa
		fa, fb = fb, fa
	}
	xc := xb + bracketGold*(xb-xa)
	fc = f(xc)

	for iter := 0; fc < fb; iter++ {
		if iter > bracketMaxIt {
			return 0, 0, 0, 0, 0, 0, errors.NewModelError("bracket", "too many iterations", nil)
		}
		tmp1 := (xb - xa) * (fb - fc)
		tmp2 := (xb - xc) * (fb - fa)
		val := tmp2 - tmp1
		denom := 2.0 * val
		if math.Abs(val) < bracketTinyDv {
			denom = 2.0 * bracketTinyDv
		}
		w := xb - ((xb-xc)*tmp2-(xb-xa)*tmp1)/denom
		wlim := xb + bracketGrow*(xc-xb)

		var fw float64
		switch {
		case (w-xc)*(xb-w) > 0:
			fw = f(w)
			if fw < fc {
				return xb, w, xc, fb, fw, fc, nil
			}
			if fw > fb {
				return xa, xb, w, fa, fb, fw, nil
			}
			w = xc + bracketGold*(xc-xb)
			fw = f(w)
		case (w-wlim)*(wlim-xc) >= 0:
			w = wlim
			fw = f(w)
		case (w-wlim)*(xc-w) > 0:
			fw = f(w)
			if fw < fc {
				xb, xc = xc, w
				w = xc + bracketGold*(xc-xb)
				fb, fc = fc, fw
				fw = f(w)
			}
		default:
			w = xc + bracketGold*(xc-xb)
			fw = f(w)
		}
		xa, xb, xc = xb, xc, w
		fa, fb, fc = fb, fc, fw
	}
	return xa, xb, xc, fa, fb, fc, nil
}

// brentMinimize はBrent法で f の極小点を求める。探索区間は (xa, xb) を
// 種にした bracket の結果から始める。
func brentMinimize(f func(float64) float64, xa, xb float64) (float64, error) {
	a, xbr, c, _, _, _, err := bracket(f, xa, xb)
	if err != nil {
		return 0, err
	}
	if a > c {
		a, c = c, a
	}
	lo, hi := a, c

	x, w, v := xbr, xbr, xbr
	fx := f(x)
	fw, fv := fx, fx
	var deltax, rat float64

	for iter := 0; iter < brentMaxIter; iter++ {
		tol1 := brentTol*math.Abs(x) + brentMinTol
		tol2 := 2.0 * tol1
		xmid := 0.5 * (lo + hi)
		if math.Abs(x-xmid) < (tol2 - 0.5*(hi-lo)) {
			return x, nil
		}

		if math.Abs(deltax) <= tol1 {
			if x >= xmid {
				deltax = lo - x
			} else {
				deltax = hi - x
			}
			rat = brentCGold * deltax
		} else {
			// 放物線補間
			tmp1 := (x - w) * (fx - fv)
			tmp2 := (x - v) * (fx - fw)
			p := (x-v)*tmp2 - (x-w)*tmp1
			tmp2 = 2.0 * (tmp2 - tmp1)
			if tmp2 > 0 {
				p = -p
			}
			tmp2 = math.Abs(tmp2)
			dxTemp := deltax
			deltax = rat
			if p > tmp2*(lo-x) && p < tmp2*(hi-x) && math.Abs(p) < math.Abs(0.5*tmp2*dxTemp) {
				rat = p / tmp2
				u := x + rat
				if (u-lo) < tol2 || (hi-u) < tol2 {
					if xmid-x >= 0 {
						rat = tol1
					} else {
						rat = -tol1
					}
				}
			} else {
				if x >= xmid {
					deltax = lo - x
				} else {
					deltax = hi - x
				}
				rat = brentCGold * deltax
			}
		}

		var u float64
		if math.Abs(rat) < tol1 {
			if rat >= 0 {
				u = x + tol1
			} else {
				u = x - tol1
			}
		} else {
			u = x + rat
		}
		fu := f(u)

		if fu > fx {
			if u < x {
				lo = u
			} else {
				hi = u
			}
			if fu <= fw || w == x {
				v, w = w, u
				fv, fw = fw, fu
			} else if fu <= fv || v == x || v == w {
				v = u
				fv = fu
			}
		} else {
			if u >= x {
				lo = x
			} else {
				hi = x
			}
			v, w, x = w, x, u
			fv, fw, fx = fw, fx, fu
		}
	}
	errors.Warn(errors.NewConvergenceWarning("brent", brentMaxIter, "lambda estimate may be inaccurate"))
	return x, nil
}
