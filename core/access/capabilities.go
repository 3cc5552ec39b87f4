package access

import "github.com/fonsecajr2/Student-Teacher-Appointment/core/user"

// Capabilities is the feature set a client may expose to the caller.
type Capabilities struct {
	CanApproveStudents     bool `json:"can_approve_students"`
	CanManageTeachers      bool `json:"can_manage_teachers"`
	CanViewAllAppointments bool `json:"can_view_all_appointments"`
	CanBookAppointments    bool `json:"can_book_appointments"`
	CanManageAppointments  bool `json:"can_manage_appointments"`
	CanSendMessages        bool `json:"can_send_messages"`
}

func CapabilitiesFor(ac AuthContext) Capabilities {
	isAdmin := Authorize(ac, user.RoleAdmin) == Allow
	return Capabilities{
		CanApproveStudents:     isAdmin,
		CanManageTeachers:      isAdmin,
		CanViewAllAppointments: isAdmin,
		CanBookAppointments:    RequireApproved(ac, user.RoleStudent) == nil,
		CanManageAppointments:  Authorize(ac, user.RoleTeacher) == Allow,
		CanSendMessages:        RequireApproved(ac, user.AllRoles...) == nil,
	}
}
