package tray

// Tray icon: a dashed selection rectangle with a speech bubble, as SVG. Some
// desktop backends take SVG bytes directly; the Windows backend wants ICO, so
// iconBytes returns nil there and the title-only entry is used.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 16 16" width="16" height="16">
  <rect x="2" y="3" width="9" height="7" fill="none" stroke="#0078d4" stroke-width="1.5" stroke-dasharray="2,1" opacity="0.8"/>
  <path d="M 8 8 h 6 v 4 h -4 l -1.5 1.5 v -1.5 h -0.5 z" fill="#ffffff" stroke="#333333" stroke-width="0.8"/>
  <line x1="9.5" y1="9.5" x2="12.5" y2="9.5" stroke="#333333" stroke-width="0.7"/>
  <line x1="9.5" y1="10.7" x2="12.5" y2="10.7" stroke="#333333" stroke-width="0.7"/>
</svg>`

func iconBytes() []byte {
	return nil // SVG is not accepted by the Windows systray backend
}
