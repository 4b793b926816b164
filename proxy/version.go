package proxy

// Software identifies this proxy in headers it synthesizes itself.
const Software = "trellis/0.3.1"
