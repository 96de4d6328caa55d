package notes

// Dragger moves an undecorated window by a grab handle. Start records where
// inside the window the pointer went down; Move turns pointer positions in
// root coordinates into window positions until End.
type Dragger struct {
	active     bool
	offX, offY int
}

func (d *Dragger) Start(offsetX, offsetY int) {
	d.active = true
	d.offX, d.offY = offsetX, offsetY
}

// Move returns the new window origin, or ok=false when no drag is running.
func (d *Dragger) Move(rootX, rootY int) (x, y int, ok bool) {
	if !d.active {
		return 0, 0, false
	}
	return rootX - d.offX, rootY - d.offY, true
}

func (d *Dragger) End() { d.active = false }

func (d *Dragger) Active() bool { return d.active }

// Resizer grows or shrinks an undecorated window from its bottom-right grip.
type Resizer struct {
	MinWidth, MinHeight int

	active         bool
	startX, startY int
	startW, startH int
}

// NewResizer returns a Resizer with the borderless-mode minimum size.
func NewResizer() *Resizer {
	return &Resizer{MinWidth: BorderlessMinWidth, MinHeight: BorderlessMinHeight}
}

func (r *Resizer) Start(rootX, rootY, width, height int) {
	r.active = true
	r.startX, r.startY = rootX, rootY
	r.startW, r.startH = width, height
}

// Move returns the new window size, clamped to the minimum, or ok=false when
// no resize is running.
func (r *Resizer) Move(rootX, rootY int) (width, height int, ok bool) {
	if !r.active {
		return 0, 0, false
	}
	width = max(r.startW+rootX-r.startX, r.MinWidth)
	height = max(r.startH+rootY-r.startY, r.MinHeight)
	return width, height, true
}

func (r *Resizer) End() { r.active = false }

func (r *Resizer) Active() bool { return r.active }
