package browserlogin

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StealthOptions control what the page sees of the automated browser.
type StealthOptions struct {
	Languages   []string
	Vendor      string
	Platform    string
	WebGLVendor string
	Renderer    string
	// FixHairline pretends the display supports hairline borders like a regular desktop browser.
	FixHairline bool
}

func DefaultStealthOptions() StealthOptions {
	return StealthOptions{
		Languages:   []string{"en-US", "en"},
		Vendor:      "Google Inc.",
		Platform:    "Win32",
		WebGLVendor: "Intel Inc.",
		Renderer:    "Intel Iris OpenGL Engine",
		FixHairline: true,
	}
}

// acceptLanguage renders the languages as an accept-language header value.
func (s StealthOptions) acceptLanguage() string {
	return strings.Join(s.Languages, ",")
}

const stealthScriptTemplate = `(() => {
	const define = (obj, prop, value) =>
		Object.defineProperty(obj, prop, { get: () => value, configurable: true });

	define(Navigator.prototype, "webdriver", undefined);
	define(Navigator.prototype, "languages", %[1]s);
	define(Navigator.prototype, "vendor", %[2]s);
	define(Navigator.prototype, "platform", %[3]s);

	if (!window.chrome) {
		window.chrome = { runtime: {} };
	}

	const patchWebGL = (proto) => {
		const getParameter = proto.getParameter;
		proto.getParameter = function (parameter) {
			// UNMASKED_VENDOR_WEBGL
			if (parameter === 37445) {
				return %[4]s;
			}
			// UNMASKED_RENDERER_WEBGL
			if (parameter === 37446) {
				return %[5]s;
			}
			return getParameter.call(this, parameter);
		};
	};
	patchWebGL(WebGLRenderingContext.prototype);
	if (window.WebGL2RenderingContext) {
		patchWebGL(WebGL2RenderingContext.prototype);
	}

	if (%[6]t) {
		const offsetHeight = Object.getOwnPropertyDescriptor(HTMLElement.prototype, "offsetHeight");
		Object.defineProperty(HTMLDivElement.prototype, "offsetHeight", {
			...offsetHeight,
			get: function () {
				if (this.id === "modernizr") {
					return 1;
				}
				return offsetHeight.get.apply(this);
			},
		});
	}
})();`

func jsLiteral(v any) string {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "undefined"
	}
	return string(encoded)
}

// script renders the javascript evaluated before any script of a new document.
func (s StealthOptions) script() string {
	languages := s.Languages
	if languages == nil {
		languages = []string{}
	}
	return fmt.Sprintf(
		stealthScriptTemplate,
		jsLiteral(languages),
		jsLiteral(s.Vendor),
		jsLiteral(s.Platform),
		jsLiteral(s.WebGLVendor),
		jsLiteral(s.Renderer),
		s.FixHairline,
	)
}
