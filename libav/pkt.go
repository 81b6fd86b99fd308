package pushlibav

import (
	"fmt"

	"github.com/asticode/go-astiav"
	"github.com/gioelecerati/livepush"
)

// packet adapts an *astiav.Packet to the livepush.Packet interface
type packet struct {
	*astiav.Packet
}

func newPacket() *packet {
	return &packet{Packet: astiav.AllocPacket()}
}

func unwrapPacket(p livepush.Packet) (*astiav.Packet, error) {
	v, ok := p.(*packet)
	if !ok {
		return nil, fmt.Errorf("pushlibav: packet %T was not created by pushlibav", p)
	}
	return v.Packet, nil
}

// frame adapts an *astiav.Frame to the livepush.Frame interface
type frame struct {
	*astiav.Frame
}

func newFrame() *frame {
	return &frame{Frame: astiav.AllocFrame()}
}

// ClearPictureType implements the livepush.Frame interface
func (f *frame) ClearPictureType() {
	f.SetPictureType(astiav.PictureTypeNone)
}

func unwrapFrame(f livepush.Frame) (*astiav.Frame, error) {
	v, ok := f.(*frame)
	if !ok {
		return nil, fmt.Errorf("pushlibav: frame %T was not created by pushlibav", f)
	}
	return v.Frame, nil
}
