package units

import (
	"fmt"
	"strings"
)

// Dims holds integer exponents of space, time and quantity.
type Dims struct {
	Space    int `json:"space"`
	Time     int `json:"time"`
	Quantity int `json:"quantity"`
}

var (
	Dimensionless = Dims{}
	Length        = Dims{Space: 1}
	Surface       = Dims{Space: 2}
	Volume        = Dims{Space: 3}
	Duration      = Dims{Time: 1}
	Quantity      = Dims{Quantity: 1}
	Density       = Dims{Space: -3, Quantity: 1}
	Diffusion     = Dims{Space: 2, Time: -1}
	Rate          = Dims{Time: -1, Quantity: 1}
	Frequency     = Dims{Time: -1}
)

func (d Dims) Add(o Dims) Dims {
	return Dims{Space: d.Space + o.Space, Time: d.Time + o.Time, Quantity: d.Quantity + o.Quantity}
}

func (d Dims) Sub(o Dims) Dims {
	return Dims{Space: d.Space - o.Space, Time: d.Time - o.Time, Quantity: d.Quantity - o.Quantity}
}

func (d Dims) Scale(n int) Dims {
	return Dims{Space: d.Space * n, Time: d.Time * n, Quantity: d.Quantity * n}
}

func (d Dims) String() string {
	if d == Dimensionless {
		return "1"
	}
	var parts []string
	for _, p := range []struct {
		sym string
		exp int
	}{{"L", d.Space}, {"T", d.Time}, {"N", d.Quantity}} {
		switch p.exp {
		case 0:
		case 1:
			parts = append(parts, p.sym)
		default:
			parts = append(parts, fmt.Sprintf("%s^%d", p.sym, p.exp))
		}
	}
	return strings.Join(parts, " ")
}
