package wire

import "github.com/transsync/schedule-api/internal/domain"

// LoginResponse maps the upstream login payload: a bearer token plus the
// user block, which may sit at the top level or under "user"/"usuario".
func LoginResponse(r Record) (string, domain.UserProfile) {
	token := r.String("token", "accessToken", "access_token")
	user := r.Object("user", "usuario")
	if user == nil {
		user = r
	}
	return token, domain.UserProfile{
		ID:    user.String("idUsuario", "id_usuario", "userId", "id"),
		Name:  joinNonEmpty(" ", user.String("nomUsuario", "nombre", "name"), user.String("apeUsuario", "apellido")),
		Email: user.String("email", "emaUsuario", "correo"),
		Role:  user.String("rol", "role", "nomRol"),
	}
}
