// Package textutil derives canonical comparison keys from scene filenames
// and browser-history titles.
//
// A canonical key is a case-folded, alphanumeric-only string. Keys are used
// purely as equality keys: two inputs match if and only if their keys are
// byte-identical. The derivation strips one trailing container extension and
// at most one trailing dash-digit index suffix before filtering, so
// "Scene_Title-02.mp4" and the history title "Scene Title" both collapse to
// "scenetitle".
package textutil
