//go:build windows

package eventloop

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32 = windows.NewLazySystemDLL("user32.dll")

	procRegisterClassExW       = user32.NewProc("RegisterClassExW")
	procCreateWindowExW        = user32.NewProc("CreateWindowExW")
	procDefWindowProcW         = user32.NewProc("DefWindowProcW")
	procDestroyWindow          = user32.NewProc("DestroyWindow")
	procGetMessageW            = user32.NewProc("GetMessageW")
	procTranslateMessage       = user32.NewProc("TranslateMessage")
	procDispatchMessageW       = user32.NewProc("DispatchMessageW")
	procPostMessageW           = user32.NewProc("PostMessageW")
	procPostQuitMessage        = user32.NewProc("PostQuitMessage")
	procRegisterWindowMessageW = user32.NewProc("RegisterWindowMessageW")
)

const (
	wmDestroy = 0x0002
	wmClose   = 0x0010
)

type wndClassEx struct {
	Size       uint32
	Style      uint32
	WndProc    uintptr
	ClsExtra   int32
	WndExtra   int32
	Instance   windows.Handle
	Icon       windows.Handle
	Cursor     windows.Handle
	Background windows.Handle
	MenuName   *uint16
	ClassName  *uint16
	IconSm     windows.Handle
}

type point struct {
	X int32
	Y int32
}

type msg struct {
	Hwnd    windows.Handle
	Message uint32
	WParam  uintptr
	LParam  uintptr
	Time    uint32
	Pt      point
}

// Loop owns the harness's hidden top-level window and pumps the native
// message queue on the calling thread. The window exists only so the
// driver has a message target and so closing it ends the pump; it is
// never shown.
type Loop struct {
	disp *Dispatcher
	hwnd windows.Handle
}

// NewLoop registers the window class, creates the hidden top-level
// window, and binds the dispatcher consulted for every pumped message.
func NewLoop(disp *Dispatcher, title string) (*Loop, error) {
	className, err := windows.UTF16PtrFromString("ScancertHostClass")
	if err != nil {
		return nil, err
	}
	windowName, err := windows.UTF16PtrFromString(title)
	if err != nil {
		return nil, err
	}

	wcex := wndClassEx{
		Size:      uint32(unsafe.Sizeof(wndClassEx{})),
		WndProc:   windows.NewCallback(wndProc),
		ClassName: className,
	}
	if ret, _, callErr := procRegisterClassExW.Call(uintptr(unsafe.Pointer(&wcex))); ret == 0 {
		return nil, fmt.Errorf("register window class: %w", callErr)
	}

	hwnd, _, callErr := procCreateWindowExW.Call(
		0,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(windowName)),
		0, 0, 0, 0, 0,
		0, 0, 0, 0,
	)
	if hwnd == 0 {
		return nil, fmt.Errorf("create window: %w", callErr)
	}

	return &Loop{disp: disp, hwnd: windows.Handle(hwnd)}, nil
}

// Window returns the handle of the owned top-level window. The handle
// is read-only and safe to pass to the worker.
func (l *Loop) Window() uintptr {
	return uintptr(l.hwnd)
}

// Run pumps messages until the top-level window closes. Every message
// is offered to the dispatcher first; a vetoed message is neither
// translated nor dispatched. Run must be called on the thread that
// created the window.
func (l *Loop) Run() error {
	var m msg
	for {
		ret, _, callErr := procGetMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		if int32(ret) == -1 {
			return fmt.Errorf("get message: %w", callErr)
		}
		if ret == 0 {
			return nil
		}

		if !l.disp.Offer(Message{
			Hwnd:   uintptr(m.Hwnd),
			ID:     m.Message,
			WParam: m.WParam,
			LParam: m.LParam,
		}) {
			continue
		}

		procTranslateMessage.Call(uintptr(unsafe.Pointer(&m)))
		procDispatchMessageW.Call(uintptr(unsafe.Pointer(&m)))
	}
}

// Close asks the loop to end by posting a close to the owned window.
// Safe to call from any thread.
func (l *Loop) Close() {
	procPostMessageW.Call(uintptr(l.hwnd), wmClose, 0, 0)
}

func wndProc(hwnd windows.Handle, message uint32, wparam, lparam uintptr) uintptr {
	switch message {
	case wmClose:
		procDestroyWindow.Call(uintptr(hwnd))
		return 0
	case wmDestroy:
		procPostQuitMessage.Call(0)
		return 0
	}
	ret, _, _ := procDefWindowProcW.Call(uintptr(hwnd), uintptr(message), wparam, lparam)
	return ret
}

// RegisterMessage returns the process-unique message ID for a named
// window message, registering it if needed. Drivers use the same call
// to agree on the data-ready notification ID.
func RegisterMessage(name string) (uint32, error) {
	p, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	ret, _, callErr := procRegisterWindowMessageW.Call(uintptr(unsafe.Pointer(p)))
	if ret == 0 {
		return 0, fmt.Errorf("register window message %q: %w", name, callErr)
	}
	return uint32(ret), nil
}
